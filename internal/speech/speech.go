// Package speech turns finished sentences into audible speech.
//
// The TTS speaker fetches raw PCM from an OpenAI-compatible /audio/speech
// endpoint and hands it to an Output, normally the malgo Player. Spoken
// audio can optionally be archived as WAV files.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayusman/blinktalk/internal/log"
)

var (
	// ErrNoAPIKey is returned when the TTS API key is missing.
	ErrNoAPIKey = errors.New("speech: API key required")

	// ErrNoDevice is returned when no playback device can be opened.
	ErrNoDevice = errors.New("speech: no playback device")
)

// Speaker speaks text in the given language.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
	// Stop interrupts the utterance in progress, if any.
	Stop()
}

// Output plays 16-bit little-endian mono PCM.
type Output interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// Config configures the TTS speaker.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Speed   float64

	// SampleRate of the PCM returned by the service.
	SampleRate int
	Timeout    time.Duration

	Logger *slog.Logger
}

// Option is a functional option for the TTS speaker.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the voice name.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithModel sets the TTS model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the defaults: tts-1, shimmer, 24 kHz PCM.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "tts-1",
		Voice:      "shimmer",
		Speed:      1.0,
		SampleRate: 24000,
		Timeout:    30 * time.Second,
	}
}

// Apply applies opts to c.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = log.Component("speech")
	}
}

// Validate checks that the config can be used.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
