package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/blinktalk/internal/app"
	"github.com/ayusman/blinktalk/internal/config"
	"github.com/ayusman/blinktalk/internal/enhance"
	"github.com/ayusman/blinktalk/internal/log"
	"github.com/ayusman/blinktalk/internal/plugin"
	"github.com/ayusman/blinktalk/internal/selection"
	"github.com/ayusman/blinktalk/internal/server"
	"github.com/ayusman/blinktalk/internal/speech"
	"github.com/ayusman/blinktalk/internal/store"
	"github.com/ayusman/blinktalk/internal/tray"
	"github.com/ayusman/blinktalk/internal/vocab"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "blinktalk:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv(config.Default())
	if err != nil {
		return err
	}

	flag.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	flag.StringVar(&cfg.Server.WebDir, "web", cfg.Server.WebDir, "board UI directory (default: search web/)")
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory for the database and audio archive")
	flag.StringVar(&cfg.PluginDir, "plugins", cfg.PluginDir, "plugin directory")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.IntVar(&cfg.Camera.DeviceID, "camera", cfg.Camera.DeviceID, "camera device ID")
	flag.BoolVar(&cfg.Tracking.AutoStart, "autostart", cfg.Tracking.AutoStart, "start gaze tracking immediately")
	flow := flag.String("flow", cfg.Selection.Flow.String(), "selection flow: coreword or subject")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Parse()

	if cfg.Selection.Flow, err = selection.ParseFlow(*flow); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(cfg.LogLevel)
	logger := log.Component("main")
	logger.Info("blinktalk starting", "addr", cfg.Server.Addr, "data", cfg.DataDir, "flow", cfg.Selection.Flow)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	v, err := loadVocabulary(st)
	if err != nil {
		return err
	}
	if err := selection.CheckVocabulary(cfg.Selection.Flow, v); err != nil {
		return err
	}

	enhancer := newEnhancer(cfg)
	speaker, closeSpeaker := newSpeaker(cfg)
	defer closeSpeaker()

	mgr := plugin.NewManager(cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}
	for _, p := range mgr.List() {
		logger.Info("plugin loaded", "name", p.Manifest.Name, "events", p.Manifest.Events)
	}
	hooks := plugin.NewHooks(mgr, plugin.NewExecutor(5*time.Second))

	hub := server.NewHub()
	var t *tray.Tray
	pubs := fanout{hub}
	if *withTray {
		t = tray.New()
		pubs = append(pubs, trayPublisher{t})
	}

	a := app.New(app.Config{
		Settings:   cfg,
		Store:      st,
		Vocabulary: v,
		Enhancer:   enhancer,
		Speaker:    speaker,
		Hooks:      hooks,
		Publisher:  pubs,
	})
	defer a.Close()

	webDir := cfg.Server.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		logger.Info("serving board UI", "dir", webDir)
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
		Hub:       hub,
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	if cfg.Tracking.AutoStart {
		if err := a.Start(); err != nil {
			// The board stays usable by pointer.
			logger.Warn("tracking not started", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if t != nil {
		url := boardURL(ln.Addr())
		a.OnUtterance(func(u store.Utterance) { t.SetLastSentence(u.Sentence) })
		t.OnToggle(func(tracking bool) {
			if !tracking {
				a.Stop()
				return
			}
			if err := a.Start(); err != nil {
				logger.Warn("tracking not started", "error", err)
			}
		})
		t.OnOpen(func() {
			if err := openBrowser(url); err != nil {
				logger.Warn("failed to open browser", "url", url, "error", err)
			}
		})
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine.
		t.Run()
		stop()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
	return nil
}

// loadVocabulary returns the stored word tables, seeding the built-in ones on first run.
func loadVocabulary(st *store.Store) (*vocab.Vocabulary, error) {
	seeded, err := st.Vocabulary().Seed(vocab.Default())
	if err != nil {
		return nil, fmt.Errorf("seed vocabulary: %w", err)
	}
	if seeded {
		log.Info("seeded default vocabulary")
	}
	v, err := st.Vocabulary().Load()
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return v, nil
}

// newEnhancer returns nil without an API key; raw sentences are spoken then.
func newEnhancer(cfg config.Config) enhance.Provider {
	client, err := enhance.NewClient(
		enhance.WithAPIKey(cfg.Enhance.APIKey),
		enhance.WithBaseURL(cfg.Enhance.BaseURL),
		enhance.WithModel(cfg.Enhance.Model),
		enhance.WithTimeout(cfg.Selection.EnhanceTimeout),
		enhance.WithLogger(log.Component("enhance")),
	)
	if err != nil {
		if errors.Is(err, enhance.ErrNoAPIKey) {
			log.Info("sentence enhancement disabled: no API key")
		} else {
			log.Warn("sentence enhancement disabled", "error", err)
		}
		return nil
	}
	if cfg.Enhance.CacheSize > 0 {
		return enhance.NewCache(client, cfg.Enhance.CacheSize)
	}
	return client
}

// newSpeaker returns nil when speech is disabled or unavailable.
func newSpeaker(cfg config.Config) (selection.Speaker, func()) {
	noop := func() {}
	if !cfg.Speech.Enabled {
		return nil, noop
	}

	player, err := speech.NewPlayer()
	if err != nil {
		log.Warn("no audio output", "error", err)
		if !cfg.Speech.Archive {
			return nil, noop
		}
	}

	var out speech.Output
	closeFn := noop
	if player != nil {
		out = player
		closeFn = func() { player.Close() }
	}

	tts, err := speech.NewTTS(out,
		speech.WithAPIKey(cfg.Enhance.APIKey),
		speech.WithBaseURL(cfg.Enhance.BaseURL),
		speech.WithVoice(cfg.Speech.Voice),
		speech.WithLogger(log.Component("speech")),
	)
	if err != nil {
		log.Info("speech disabled", "reason", err)
		closeFn()
		return nil, noop
	}

	if cfg.Speech.Archive {
		archive, err := speech.NewArchive(cfg.AudioDir())
		if err != nil {
			log.Warn("speech archive disabled", "error", err)
		} else {
			tts.SetArchive(archive)
		}
	}
	return tts, closeFn
}

// fanout sends every event to each publisher in turn.
type fanout []app.Publisher

func (f fanout) Publish(kind string, payload any) {
	for _, p := range f {
		p.Publish(kind, payload)
	}
}

// trayPublisher mirrors the tracking state into the tray toggle.
type trayPublisher struct {
	t *tray.Tray
}

func (p trayPublisher) Publish(kind string, payload any) {
	if kind != app.EventTracking {
		return
	}
	if st, ok := payload.(app.Status); ok {
		p.t.SetTracking(st.State == app.StateRunning)
	}
}

func boardURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://localhost:8080/"
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the board UI in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if strings.TrimSpace(dataDir) != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
