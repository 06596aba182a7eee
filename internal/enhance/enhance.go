// Package enhance rewrites assembled word sequences into natural sentences.
package enhance

import (
	"context"
	"log/slog"
	"time"
)

// Politeness is the speech register requested from the provider.
type Politeness string

const (
	Casual Politeness = "casual"
	Formal Politeness = "formal"
)

// Request describes one sentence to enhance.
type Request struct {
	Sentence   string     `json:"sentence"`
	Subject    string     `json:"subject,omitempty"`
	CoreWord   string     `json:"coreWord,omitempty"`
	Predicate  string     `json:"predicate,omitempty"`
	Category   string     `json:"category,omitempty"`
	Question   bool       `json:"question"`
	Politeness Politeness `json:"politeness,omitempty"`
}

// Result is an enhanced sentence.
type Result struct {
	Sentence string `json:"sentence"`
	// Enhanced is false when the provider returned the original unchanged.
	Enhanced  bool   `json:"enhanced"`
	Cached    bool   `json:"cached"`
	Model     string `json:"model,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Provider enhances sentences.
type Provider interface {
	Enhance(ctx context.Context, req *Request) (*Result, error)
}

// Config holds provider configuration. Use the WithXxx options to set it.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	Temperature float64
	MaxTokens   int

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the API base URL, e.g. "https://api.openai.com/v1".
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retries on 429 and 5xx responses.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the defaults for an OpenAI-compatible endpoint.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.8,
		MaxTokens:   100,
		Timeout:     10 * time.Second,
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies opts to c.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
