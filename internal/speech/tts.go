package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTS speaks through an OpenAI-compatible speech endpoint.
type TTS struct {
	cfg     *Config
	client  *http.Client
	out     Output
	archive *Archive
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

var _ Speaker = (*TTS)(nil)

// NewTTS creates a speaker that plays through out.
func NewTTS(out Output, opts ...Option) (*TTS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TTS{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		out:    out,
		logger: cfg.Logger,
	}, nil
}

// SetArchive enables WAV archiving of every synthesized utterance.
func (t *TTS) SetArchive(a *Archive) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.archive = a
}

// Speak synthesizes text and plays it, interrupting any earlier utterance.
// The service picks pronunciation from the text itself, so lang is only logged.
func (t *TTS) Speak(ctx context.Context, text, lang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	archive := t.archive
	t.mu.Unlock()
	defer cancel()

	start := time.Now()
	pcm, err := t.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	t.logger.Debug("synthesized speech", "lang", lang, "bytes", len(pcm), "latency_ms", time.Since(start).Milliseconds())

	if archive != nil {
		if path, err := archive.Save(uuid.NewString(), pcm, t.cfg.SampleRate); err != nil {
			t.logger.Warn("archive failed", "error", err)
		} else {
			t.logger.Debug("archived speech", "path", path)
		}
	}

	if t.out == nil {
		return nil
	}
	return t.out.Play(ctx, pcm, t.cfg.SampleRate)
}

// Stop interrupts the utterance in progress.
func (t *TTS) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Voice          string  `json:"voice"`
	Input          string  `json:"input"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// Synthesize returns 16-bit mono PCM for text.
func (t *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Model:          t.cfg.Model,
		Voice:          t.cfg.Voice,
		Input:          text,
		ResponseFormat: "pcm",
		Speed:          t.cfg.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: marshal request: %w", err)
	}

	url := strings.TrimRight(t.cfg.BaseURL, "/") + "/audio/speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech: API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read response: %w", err)
	}
	return pcm, nil
}
