// Package config aggregates the tunables of every blinktalk component.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/blinktalk/internal/blink"
	"github.com/ayusman/blinktalk/internal/capture"
	"github.com/ayusman/blinktalk/internal/detector"
	"github.com/ayusman/blinktalk/internal/dispatch"
	"github.com/ayusman/blinktalk/internal/gaze"
	"github.com/ayusman/blinktalk/internal/selection"
)

// Tracking holds the camera loop settings.
type Tracking struct {
	FrameSkip            int
	ActiveFPS            int
	IdleFPS              int
	IdleTimeout          time.Duration
	InitAttempts         int
	InitBackoff          time.Duration
	MaxConsecutiveErrors int
	// AutoStart starts tracking as soon as the app runs.
	AutoStart bool
}

// Enhance holds the sentence enhancement settings.
type Enhance struct {
	APIKey    string
	BaseURL   string
	Model     string
	CacheSize int
}

// Speech holds the TTS settings.
type Speech struct {
	Enabled bool
	Voice   string
	// Archive stores every spoken sentence as WAV under DataDir/audio.
	Archive bool
}

// Screen is the viewport the cursor is mapped onto until the UI reports its size.
type Screen struct {
	Width  float64
	Height float64
}

// Server holds the HTTP settings.
type Server struct {
	Addr   string
	WebDir string
}

// Config is the complete application configuration.
type Config struct {
	LogLevel  string
	DataDir   string
	PluginDir string

	Camera    capture.Config
	Detector  detector.Config
	Gaze      gaze.Config
	Blink     blink.Config
	Dispatch  dispatch.Config
	Selection selection.Config
	Screen    Screen
	Tracking  Tracking
	Enhance   Enhance
	Speech    Speech
	Server    Server
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := ".blinktalk"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".blinktalk")
	}

	cam := capture.DefaultConfig()
	cam.FPS = 30

	return Config{
		LogLevel:  "info",
		DataDir:   dataDir,
		PluginDir: filepath.Join(dataDir, "plugins"),
		Camera:    cam,
		Detector:  detector.DefaultConfig(),
		Gaze:      gaze.DefaultConfig(),
		Blink:     blink.DefaultConfig(),
		Dispatch:  dispatch.DefaultConfig(),
		Selection: selection.DefaultConfig(),
		Screen:    Screen{Width: 1371, Height: 800},
		Tracking: Tracking{
			FrameSkip:            2,
			ActiveFPS:            30,
			IdleFPS:              5,
			IdleTimeout:          3 * time.Second,
			InitAttempts:         3,
			InitBackoff:          time.Second,
			MaxConsecutiveErrors: 30,
		},
		Enhance: Enhance{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			CacheSize: 256,
		},
		Speech: Speech{
			Enabled: true,
			Voice:   "shimmer",
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// DBPath returns the sqlite database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "blinktalk.db")
}

// AudioDir returns the WAV archive location.
func (c Config) AudioDir() string {
	return filepath.Join(c.DataDir, "audio")
}

// FromEnv overrides cfg from BLINKTALK_* and OPENAI_* variables.
func FromEnv(cfg Config) (Config, error) {
	return fromLookup(cfg, os.LookupEnv)
}

func fromLookup(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("BLINKTALK_ADDR", &cfg.Server.Addr)
	str("BLINKTALK_WEB_DIR", &cfg.Server.WebDir)
	str("BLINKTALK_LOG_LEVEL", &cfg.LogLevel)
	if v, ok := lookup("BLINKTALK_DATA_DIR"); ok && v != "" {
		if cfg.PluginDir == filepath.Join(cfg.DataDir, "plugins") {
			cfg.PluginDir = filepath.Join(v, "plugins")
		}
		cfg.DataDir = v
	}
	str("BLINKTALK_PLUGIN_DIR", &cfg.PluginDir)
	num("BLINKTALK_CAMERA", &cfg.Camera.DeviceID)
	num("BLINKTALK_FRAME_SKIP", &cfg.Tracking.FrameSkip)
	flag("BLINKTALK_AUTOSTART", &cfg.Tracking.AutoStart)
	flag("BLINKTALK_GRAVITY", &cfg.Gaze.Gravity.Enabled)
	flag("BLINKTALK_ADAPTIVE_EAR", &cfg.Blink.Adaptive)
	flag("BLINKTALK_SPEECH", &cfg.Speech.Enabled)
	flag("BLINKTALK_SPEECH_ARCHIVE", &cfg.Speech.Archive)
	str("BLINKTALK_VOICE", &cfg.Speech.Voice)
	dur("BLINKTALK_ENHANCE_TIMEOUT", &cfg.Selection.EnhanceTimeout)
	dur("BLINKTALK_AUTO_RESET", &cfg.Selection.AutoReset)
	str("OPENAI_API_KEY", &cfg.Enhance.APIKey)
	str("OPENAI_BASE_URL", &cfg.Enhance.BaseURL)

	if v, ok := lookup("BLINKTALK_FLOW"); ok && v != "" {
		f, err := selection.ParseFlow(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: BLINKTALK_FLOW: %w", err))
		} else {
			cfg.Selection.Flow = f
		}
	}

	return cfg, errors.Join(errs...)
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	if c.Tracking.FrameSkip < 1 {
		bad("frame skip must be at least 1, got %d", c.Tracking.FrameSkip)
	}
	if c.Tracking.ActiveFPS <= 0 || c.Tracking.IdleFPS <= 0 {
		bad("fps must be positive")
	}
	if c.Tracking.InitAttempts < 1 {
		bad("init attempts must be at least 1")
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		bad("screen size must be positive, got %gx%g", c.Screen.Width, c.Screen.Height)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		bad("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}

	g := c.Gaze
	if g.Alpha <= 0 || g.Alpha > 1 {
		bad("gaze alpha must be in (0,1], got %g", g.Alpha)
	}
	if g.MaxStep <= 0 {
		bad("gaze max step must be positive")
	}
	if g.RatioMin >= g.RatioMax {
		bad("gaze ratio clamp inverted: [%g, %g]", g.RatioMin, g.RatioMax)
	}
	if g.Vertical != gaze.VerticalLowerHalf && g.Vertical != gaze.VerticalFull {
		bad("unknown vertical mode %q", g.Vertical)
	}
	for i, w := range g.Bands {
		if w <= 0 {
			bad("zone band %d must be positive", i)
		}
	}

	b := c.Blink
	if b.Threshold <= 0 {
		bad("blink threshold must be positive")
	}
	if b.MinThreshold >= b.MaxThreshold {
		bad("blink threshold clamp inverted: [%g, %g]", b.MinThreshold, b.MaxThreshold)
	}
	if b.Adaptive && (b.HistorySize <= 0 || b.MinSamples <= 0) {
		bad("adaptive blink history must be positive")
	}
	if b.LongDuration >= b.MaxDuration {
		bad("long blink %v must be shorter than max blink %v", b.LongDuration, b.MaxDuration)
	}
	if b.DoubleCount < 2 {
		bad("double blink count must be at least 2")
	}

	if c.Dispatch.Cooldown < 0 {
		bad("dispatch cooldown must not be negative")
	}
	if c.Selection.EnhanceTimeout <= 0 {
		bad("enhance timeout must be positive")
	}
	if c.Selection.NavGuard < 0 {
		bad("navigation guard must not be negative")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		bad("server address required")
	}

	return errors.Join(errs...)
}
