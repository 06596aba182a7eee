package blink

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/blinktalk/internal/detector"
	"github.com/ayusman/blinktalk/internal/log"
)

const (
	frame   = 33 * time.Millisecond
	openEAR = 0.30
	shutEAR = 0.05
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedConfig() Config {
	cfg := DefaultConfig()
	cfg.Adaptive = false
	cfg.SmoothingWindow = 1
	return cfg
}

func newTestClassifier(cfg Config) *Classifier {
	c := New(cfg)
	c.SetLogger(log.Discard())
	return c
}

// closeFor holds the eyes shut from start for d, then reopens them at start+d and
// returns whatever the reopening frame emitted.
func closeFor(c *Classifier, start time.Time, d time.Duration) []Event {
	for t := start; t.Before(start.Add(d)); t = t.Add(frame) {
		if ev := c.UpdateEAR(shutEAR, t); len(ev) != 0 {
			return ev
		}
	}
	return c.UpdateEAR(openEAR, start.Add(d))
}

func kinds(events []Event) []Kind {
	out := make([]Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEAR(t *testing.T) {
	tests := []struct {
		name string
		ear  float64
	}{
		{"open", 0.3},
		{"closed", 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EAR(detector.FaceWith(0.5, 0.5, tt.ear))
			if !ok {
				t.Fatal("expected EAR")
			}
			if math.Abs(got-tt.ear) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.ear, got)
			}
		})
	}

	if _, ok := EAR(nil); ok {
		t.Error("expected no EAR for nil landmarks")
	}
	if _, ok := EAR(&detector.FaceLandmarks{Points: make([]detector.Point3D, 10)}); ok {
		t.Error("expected no EAR for a truncated landmark set")
	}
}

func TestClassifier_DurationBoundaries(t *testing.T) {
	cfg := fixedConfig()

	tests := []struct {
		name string
		d    time.Duration
		want []Kind
	}{
		{"short", 200 * time.Millisecond, []Kind{KindShort}},
		{"one frame under long", cfg.LongDuration - frame, []Kind{KindShort}},
		{"exactly long", cfg.LongDuration, []Kind{KindLong}},
		{"just under max", cfg.MaxDuration - time.Millisecond, []Kind{KindLong}},
		{"exactly max", cfg.MaxDuration, nil},
		{"over max", cfg.MaxDuration + time.Millisecond, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(cfg)
			c.UpdateEAR(openEAR, epoch.Add(-frame))

			got := kinds(closeFor(c, epoch, tt.d))
			if !equalKinds(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if c.Closed() {
				t.Error("expected episode to be closed out")
			}
		})
	}
}

func TestClassifier_DegenerateEpisode(t *testing.T) {
	c := newTestClassifier(fixedConfig())
	c.UpdateEAR(shutEAR, epoch)
	if ev := c.UpdateEAR(openEAR, epoch.Add(frame)); len(ev) != 0 {
		t.Errorf("expected single-frame closure to be ignored, got %v", kinds(ev))
	}
}

func TestClassifier_DoubleBlink(t *testing.T) {
	cfg := fixedConfig()
	blink := 150 * time.Millisecond

	t.Run("within window", func(t *testing.T) {
		c := newTestClassifier(cfg)

		first := kinds(closeFor(c, epoch, blink))
		if !equalKinds(first, []Kind{KindShort}) {
			t.Fatalf("expected short, got %v", first)
		}
		second := kinds(closeFor(c, epoch.Add(400*time.Millisecond), blink))
		if !equalKinds(second, []Kind{KindShort, KindDouble}) {
			t.Fatalf("expected short+double, got %v", second)
		}

		// The window was cleared, so a third blink is a plain short blink.
		third := kinds(closeFor(c, epoch.Add(800*time.Millisecond), blink))
		if !equalKinds(third, []Kind{KindShort}) {
			t.Errorf("expected short after window reset, got %v", third)
		}
	})

	t.Run("beyond window", func(t *testing.T) {
		c := newTestClassifier(cfg)
		closeFor(c, epoch, blink)
		second := kinds(closeFor(c, epoch.Add(cfg.DoubleWindow+500*time.Millisecond), blink))
		if !equalKinds(second, []Kind{KindShort}) {
			t.Errorf("expected independent short, got %v", second)
		}
	})

	t.Run("long blink does not count toward double", func(t *testing.T) {
		c := newTestClassifier(cfg)
		closeFor(c, epoch, cfg.LongDuration)
		got := kinds(closeFor(c, epoch.Add(cfg.LongDuration+200*time.Millisecond), blink))
		if !equalKinds(got, []Kind{KindShort}) {
			t.Errorf("expected short only, got %v", got)
		}
	})

	t.Run("flutter restarts the pair", func(t *testing.T) {
		c := newTestClassifier(cfg)
		closeFor(c, epoch, blink)

		// Reopens 166ms after the first blink: past MinInterval, inside DoubleMinGap.
		flutter := epoch.Add(250 * time.Millisecond)
		got := kinds(closeFor(c, flutter, 2*frame))
		if !equalKinds(got, []Kind{KindShort}) {
			t.Fatalf("expected a lone short for flutter, got %v", got)
		}

		got = kinds(closeFor(c, flutter.Add(2*frame+300*time.Millisecond), blink))
		if !equalKinds(got, []Kind{KindShort, KindDouble}) {
			t.Errorf("expected the flutter blink to open a new pair, got %v", got)
		}
	})

	t.Run("blinks closer than min interval are dropped", func(t *testing.T) {
		c := newTestClassifier(cfg)
		closeFor(c, epoch, blink)
		got := closeFor(c, epoch.Add(blink+frame), 2*frame)
		if len(got) != 0 {
			t.Errorf("expected rapid re-closure to be ignored, got %v", kinds(got))
		}
	})
}

func TestClassifier_NoFaceFreezes(t *testing.T) {
	c := newTestClassifier(fixedConfig())

	c.UpdateEAR(shutEAR, epoch)
	c.UpdateEAR(shutEAR, epoch.Add(frame))
	for i := 2; i < 30; i++ {
		if ev := c.Update(nil, epoch.Add(time.Duration(i)*frame)); ev != nil {
			t.Fatalf("expected no events without a face, got %v", kinds(ev))
		}
	}
	if !c.Closed() {
		t.Fatal("expected episode to remain open across detection gaps")
	}

	got := kinds(c.Update(detector.OpenEyesFace(0.5, 0.5), epoch.Add(1300*time.Millisecond)))
	if !equalKinds(got, []Kind{KindLong}) {
		t.Errorf("expected long blink measured from first closed frame, got %v", got)
	}
}

func TestClassifier_AdaptiveThreshold(t *testing.T) {
	tests := []struct {
		name string
		ear  float64
		want float64
	}{
		{"converges to baseline ratio", 0.30, 0.30 * 0.85},
		{"clamped to upper bound", 0.40, 0.28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c := newTestClassifier(cfg)

			ts := epoch
			for i := 0; i < 400; i++ {
				c.UpdateEAR(tt.ear, ts)
				ts = ts.Add(frame)
			}
			if math.Abs(c.Threshold()-tt.want) > 1e-3 {
				t.Errorf("expected threshold %f, got %f", tt.want, c.Threshold())
			}
		})
	}

	t.Run("waits for minimum samples", func(t *testing.T) {
		cfg := DefaultConfig()
		c := newTestClassifier(cfg)
		for i := 0; i < cfg.MinSamples-1; i++ {
			c.UpdateEAR(0.3, epoch.Add(time.Duration(i)*frame))
		}
		if c.Threshold() != cfg.Threshold {
			t.Errorf("expected threshold unchanged, got %f", c.Threshold())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Adaptive = false
		c := newTestClassifier(cfg)
		for i := 0; i < 200; i++ {
			c.UpdateEAR(0.3, epoch.Add(time.Duration(i)*frame))
		}
		if c.Threshold() != 0.19 {
			t.Errorf("expected fixed threshold 0.19, got %f", c.Threshold())
		}
	})
}

func TestClassifier_Smoothing(t *testing.T) {
	cfg := fixedConfig()
	cfg.SmoothingWindow = 5
	c := newTestClassifier(cfg)

	for i := 0; i < 5; i++ {
		c.UpdateEAR(0.3, epoch.Add(time.Duration(i)*frame))
	}
	// One closed sample is diluted by the open history and does not cross the threshold.
	c.UpdateEAR(0.05, epoch.Add(5*frame))
	if c.Closed() {
		t.Errorf("expected smoothed EAR %f to stay above threshold", c.EAR())
	}
	if math.Abs(c.EAR()-0.25) > 1e-9 {
		t.Errorf("expected smoothed EAR 0.25, got %f", c.EAR())
	}
}

func TestClassifier_Reset(t *testing.T) {
	c := newTestClassifier(fixedConfig())
	c.UpdateEAR(shutEAR, epoch)
	c.Reset()
	if c.Closed() {
		t.Error("expected reset to clear the open episode")
	}
}

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{KindShort: "short", KindLong: "long", KindDouble: "double"} {
		if k.String() != want {
			t.Errorf("expected %q, got %q", want, k.String())
		}
	}
}
