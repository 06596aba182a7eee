package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const providerOpenAI = "openai"

// Client enhances sentences with an OpenAI-compatible chat completions endpoint.
type Client struct {
	config *Config
	client *http.Client
	logger *slog.Logger
	url    string
}

// NewClient creates a client. It fails with ErrNoAPIKey without a key.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "enhance.openai"),
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enhance implements Provider.
func (c *Client) Enhance(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || strings.TrimSpace(req.Sentence) == "" {
		return nil, ErrEmptySentence
	}
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: userPrompt(req)},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return nil, WrapError(providerOpenAI, ErrNoChoices)
	}
	sentence := cleanSentence(out.Choices[0].Message.Content)
	if sentence == "" {
		return nil, WrapError(providerOpenAI, ErrNoChoices)
	}

	latency := time.Since(start).Milliseconds()
	c.logger.Debug("enhanced sentence",
		"original", req.Sentence,
		"enhanced", sentence,
		"latency_ms", latency,
	)

	return &Result{
		Sentence:  sentence,
		Enhanced:  sentence != req.Sentence,
		Model:     out.Model,
		LatencyMs: latency,
	}, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(providerOpenAI, ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, WrapError(providerOpenAI, ctx.Err())
			}
			lastErr = WrapError(providerOpenAI, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parseError(resp)
			resp.Body.Close()
			c.logger.Warn("retrying request", "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, lastErr
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Provider: providerOpenAI}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Code = errResp.Error.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
