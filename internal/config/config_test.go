package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/blinktalk/internal/gaze"
	"github.com/ayusman/blinktalk/internal/selection"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Tracking.FrameSkip != 2 || cfg.Tracking.IdleFPS != 5 || cfg.Tracking.ActiveFPS != 30 {
		t.Errorf("unexpected tracking defaults %+v", cfg.Tracking)
	}
	if cfg.Blink.Threshold != 0.19 || cfg.Blink.LongDuration != 1200*time.Millisecond {
		t.Errorf("unexpected blink defaults %+v", cfg.Blink)
	}
	if cfg.Dispatch.Cooldown != time.Second {
		t.Errorf("expected 1s cooldown, got %v", cfg.Dispatch.Cooldown)
	}
	if cfg.Selection.EnhanceTimeout != 5*time.Second || cfg.Selection.Language != "ko-KR" {
		t.Errorf("unexpected selection defaults %+v", cfg.Selection)
	}
	if filepath.Base(cfg.DBPath()) != "blinktalk.db" {
		t.Errorf("unexpected db path %s", cfg.DBPath())
	}
}

func TestFromEnv(t *testing.T) {
	cfg, err := fromLookup(Default(), env(map[string]string{
		"BLINKTALK_ADDR":            ":9000",
		"BLINKTALK_DATA_DIR":        "/tmp/bt",
		"BLINKTALK_CAMERA":          "2",
		"BLINKTALK_FLOW":            "subject",
		"BLINKTALK_FRAME_SKIP":      "3",
		"BLINKTALK_GRAVITY":         "true",
		"BLINKTALK_ADAPTIVE_EAR":    "false",
		"BLINKTALK_ENHANCE_TIMEOUT": "2s",
		"OPENAI_API_KEY":            "sk-test",
		"OPENAI_BASE_URL":           "http://localhost:1234/v1",
	}))
	if err != nil {
		t.Fatalf("fromLookup: %v", err)
	}

	if cfg.Server.Addr != ":9000" || cfg.Camera.DeviceID != 2 || cfg.Tracking.FrameSkip != 3 {
		t.Errorf("unexpected overrides %+v", cfg)
	}
	if cfg.DataDir != "/tmp/bt" || cfg.PluginDir != filepath.Join("/tmp/bt", "plugins") {
		t.Errorf("expected data dir to move plugins, got %s and %s", cfg.DataDir, cfg.PluginDir)
	}
	if cfg.Selection.Flow != selection.FlowSubject {
		t.Errorf("expected subject flow, got %v", cfg.Selection.Flow)
	}
	if !cfg.Gaze.Gravity.Enabled || cfg.Blink.Adaptive {
		t.Error("expected gravity on and adaptive EAR off")
	}
	if cfg.Selection.EnhanceTimeout != 2*time.Second {
		t.Errorf("expected 2s enhance timeout, got %v", cfg.Selection.EnhanceTimeout)
	}
	if cfg.Enhance.APIKey != "sk-test" || cfg.Enhance.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("unexpected enhance config %+v", cfg.Enhance)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"BLINKTALK_CAMERA", "front"},
		{"BLINKTALK_GRAVITY", "sometimes"},
		{"BLINKTALK_ENHANCE_TIMEOUT", "soon"},
		{"BLINKTALK_FLOW", "sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := fromLookup(Default(), env(map[string]string{tt.key: tt.value}))
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("expected error naming %s, got %v", tt.key, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"frame skip", func(c *Config) { c.Tracking.FrameSkip = 0 }, "frame skip"},
		{"alpha zero", func(c *Config) { c.Gaze.Alpha = 0 }, "alpha"},
		{"alpha above one", func(c *Config) { c.Gaze.Alpha = 1.5 }, "alpha"},
		{"ratio clamp", func(c *Config) { c.Gaze.RatioMin = 0.9; c.Gaze.RatioMax = 0.1 }, "ratio clamp"},
		{"vertical mode", func(c *Config) { c.Gaze.Vertical = gaze.VerticalMode("upper") }, "vertical"},
		{"band", func(c *Config) { c.Gaze.Bands[1] = 0 }, "band"},
		{"threshold clamp", func(c *Config) { c.Blink.MinThreshold = 0.3 }, "threshold clamp"},
		{"long vs max", func(c *Config) { c.Blink.LongDuration = c.Blink.MaxDuration }, "long blink"},
		{"enhance timeout", func(c *Config) { c.Selection.EnhanceTimeout = 0 }, "enhance timeout"},
		{"screen", func(c *Config) { c.Screen.Width = 0 }, "screen size"},
		{"addr", func(c *Config) { c.Server.Addr = " " }, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) || !strings.HasPrefix(err.Error(), "config: ") {
				t.Errorf("expected config error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
