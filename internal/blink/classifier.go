// Package blink classifies eyelid closures into short, long and double blinks.
package blink

import (
	"log/slog"
	"time"

	"github.com/ayusman/blinktalk/internal/detector"
	"github.com/ayusman/blinktalk/internal/log"
)

// Kind is the type of a classified blink.
type Kind int

const (
	KindShort Kind = iota
	KindLong
	KindDouble
)

func (k Kind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	default:
		return "short"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is emitted when a closure episode ends.
type Event struct {
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// Config holds the blink classification constants.
type Config struct {
	// Threshold is the starting EAR below which the eye counts as closed.
	Threshold float64
	Adaptive  bool

	// Adaptive baseline.
	OpenMargin   float64
	HistorySize  int
	MinSamples   int
	UpdateRatio  float64
	Blend        float64
	MinThreshold float64
	MaxThreshold float64

	// SmoothingWindow is the moving-average length applied to raw EAR. 1 disables it.
	SmoothingWindow int
	// MinClosedFrames is the number of consecutive closed frames an episode needs.
	MinClosedFrames int
	// MinInterval is the shortest gap between two accepted short blinks.
	MinInterval time.Duration

	LongDuration time.Duration
	MaxDuration  time.Duration
	DoubleWindow time.Duration
	DoubleCount  int
	// DoubleMinGap is the shortest gap between the blinks of a double blink.
	// A closer pair is eyelid flutter: the later blink starts a new window.
	DoubleMinGap time.Duration
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.19,
		Adaptive:        true,
		OpenMargin:      1.1,
		HistorySize:     90,
		MinSamples:      30,
		UpdateRatio:     0.85,
		Blend:           0.05,
		MinThreshold:    0.15,
		MaxThreshold:    0.28,
		SmoothingWindow: 5,
		MinClosedFrames: 2,
		MinInterval:     100 * time.Millisecond,
		LongDuration:    1200 * time.Millisecond,
		MaxDuration:     2000 * time.Millisecond,
		DoubleWindow:    1000 * time.Millisecond,
		DoubleCount:     2,
		DoubleMinGap:    200 * time.Millisecond,
	}
}

// Classifier tracks one eye-closure signal. It is not safe for concurrent use.
type Classifier struct {
	cfg    Config
	logger *slog.Logger

	threshold float64
	history   []float64
	smooth    []float64
	ear       float64

	closed       bool
	closedFrames int
	closedAt     time.Time

	lastShort time.Time
	window    []time.Time
}

// New creates a classifier.
func New(cfg Config) *Classifier {
	if cfg.SmoothingWindow < 1 {
		cfg.SmoothingWindow = 1
	}
	if cfg.DoubleCount < 2 {
		cfg.DoubleCount = 2
	}
	return &Classifier{
		cfg:       cfg,
		logger:    log.Component("blink"),
		threshold: cfg.Threshold,
	}
}

// SetLogger replaces the component logger.
func (c *Classifier) SetLogger(l *slog.Logger) {
	c.logger = l
}

// Threshold returns the live closed-eye threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// EAR returns the last smoothed eye aspect ratio.
func (c *Classifier) EAR() float64 {
	return c.ear
}

// Closed reports whether an episode is in progress.
func (c *Classifier) Closed() bool {
	return c.closed
}

// Update consumes one frame observed at t. A nil or unmeasurable landmark set
// freezes the classifier: an open episode stays open and nothing is emitted.
func (c *Classifier) Update(lm *detector.FaceLandmarks, t time.Time) []Event {
	raw, ok := EAR(lm)
	if !ok {
		return nil
	}
	return c.UpdateEAR(raw, t)
}

// UpdateEAR consumes a raw EAR sample observed at t.
func (c *Classifier) UpdateEAR(raw float64, t time.Time) []Event {
	ear := c.smoothEAR(raw)
	c.ear = ear

	if c.cfg.Adaptive {
		c.adapt(ear)
	}

	if ear < c.threshold {
		if !c.closed {
			c.closed = true
			c.closedAt = t
			c.closedFrames = 0
		}
		c.closedFrames++
		return nil
	}

	if !c.closed {
		return nil
	}
	c.closed = false
	if c.closedFrames < c.cfg.MinClosedFrames {
		c.logger.Debug("closure too brief", "frames", c.closedFrames)
		return nil
	}
	return c.classify(t.Sub(c.closedAt), t)
}

func (c *Classifier) classify(d time.Duration, t time.Time) []Event {
	switch {
	case d >= c.cfg.MaxDuration:
		c.logger.Debug("discarding degenerate closure", "duration", d)
		return nil
	case d >= c.cfg.LongDuration:
		return []Event{{Kind: KindLong, Duration: d, At: t}}
	}

	if !c.lastShort.IsZero() && t.Sub(c.lastShort) <= c.cfg.MinInterval {
		return nil
	}
	c.lastShort = t

	events := []Event{{Kind: KindShort, Duration: d, At: t}}

	if n := len(c.window); n > 0 && t.Sub(c.window[n-1]) < c.cfg.DoubleMinGap {
		c.window = c.window[:0]
	}
	c.window = append(c.window, t)
	keep := c.window[:0]
	for _, ts := range c.window {
		if t.Sub(ts) <= c.cfg.DoubleWindow {
			keep = append(keep, ts)
		}
	}
	c.window = keep

	if len(c.window) >= c.cfg.DoubleCount {
		events = append(events, Event{Kind: KindDouble, Duration: t.Sub(c.window[0]), At: t})
		c.window = c.window[:0]
	}
	return events
}

func (c *Classifier) smoothEAR(raw float64) float64 {
	c.smooth = append(c.smooth, raw)
	if len(c.smooth) > c.cfg.SmoothingWindow {
		c.smooth = c.smooth[1:]
	}
	var sum float64
	for _, v := range c.smooth {
		sum += v
	}
	return sum / float64(len(c.smooth))
}

// adapt folds clearly-open samples into the baseline and nudges the threshold.
func (c *Classifier) adapt(ear float64) {
	if ear <= c.threshold*c.cfg.OpenMargin {
		return
	}
	c.history = append(c.history, ear)
	if len(c.history) > c.cfg.HistorySize {
		c.history = c.history[1:]
	}
	if len(c.history) < c.cfg.MinSamples {
		return
	}

	var sum float64
	for _, v := range c.history {
		sum += v
	}
	candidate := sum / float64(len(c.history)) * c.cfg.UpdateRatio

	next := c.threshold*(1-c.cfg.Blend) + candidate*c.cfg.Blend
	if next < c.cfg.MinThreshold {
		next = c.cfg.MinThreshold
	}
	if next > c.cfg.MaxThreshold {
		next = c.cfg.MaxThreshold
	}
	c.threshold = next
}

// Reset clears the episode, the double-blink window and the adaptive baseline.
func (c *Classifier) Reset() {
	c.threshold = c.cfg.Threshold
	c.history = nil
	c.smooth = nil
	c.ear = 0
	c.closed = false
	c.closedFrames = 0
	c.lastShort = time.Time{}
	c.window = nil
}
