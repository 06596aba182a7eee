// Package app ties the camera, landmark detector, gaze, blink and selection
// components into the tracking pipeline of the blinktalk communication board.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/blinktalk/internal/blink"
	"github.com/ayusman/blinktalk/internal/capture"
	"github.com/ayusman/blinktalk/internal/config"
	"github.com/ayusman/blinktalk/internal/detector"
	"github.com/ayusman/blinktalk/internal/dispatch"
	"github.com/ayusman/blinktalk/internal/enhance"
	"github.com/ayusman/blinktalk/internal/gaze"
	"github.com/ayusman/blinktalk/internal/log"
	"github.com/ayusman/blinktalk/internal/plugin"
	"github.com/ayusman/blinktalk/internal/selection"
	"github.com/ayusman/blinktalk/internal/store"
	"github.com/ayusman/blinktalk/internal/vocab"
)

// ErrTrackingDisabled is returned by Start when the camera or the landmark
// model cannot be brought up. The selection board stays usable by pointer.
var ErrTrackingDisabled = errors.New("tracking disabled")

// TrackingState is the lifecycle state of the camera loop.
type TrackingState string

const (
	StateStopped  TrackingState = "stopped"
	StateStarting TrackingState = "starting"
	StateRunning  TrackingState = "running"
	StateDisabled TrackingState = "disabled"
)

const (
	msgCamera   = "camera unavailable: grant camera permission and make sure no other application is using it"
	msgDetector = "face landmark model failed to load: check the face mesh service and reload"
	msgRestart  = "face landmark model stopped responding: reload to try again"
)

// Status is the externally visible tracking state.
type Status struct {
	State   TrackingState `json:"state"`
	Message string        `json:"message,omitempty"`
	FPS     int           `json:"fps"`
	Session string        `json:"session,omitempty"`
	Face    bool          `json:"face"`
}

// Config holds the collaborators of an App. Nil fields fall back to the
// real device, no persistence, or no output respectively.
type Config struct {
	Settings   config.Config
	Store      *store.Store
	Vocabulary *vocab.Vocabulary
	Camera     capture.Camera
	Detector   detector.Detector
	Enhancer   enhance.Provider
	Speaker    selection.Speaker
	Hooks      *plugin.Hooks
	Publisher  Publisher
	Logger     *slog.Logger
}

// App is the main application that orchestrates tracking and selection.
type App struct {
	settings  config.Config
	store     *store.Store
	hooks     *plugin.Hooks
	publisher Publisher
	logger    *slog.Logger

	camera   capture.Camera
	detector detector.Detector
	machine  *selection.Machine

	// trackMu guards the per-frame components, which the loop and the
	// calibration API both touch.
	trackMu    sync.Mutex
	estimator  *gaze.Estimator
	classifier *blink.Classifier
	dispatcher *dispatch.Dispatcher
	calibrator *gaze.Calibrator

	mu      sync.RWMutex
	state   TrackingState
	message string
	fps     int
	session string
	face    bool
	vocab   *vocab.Vocabulary
	stopCh  chan struct{}
	done    chan struct{}

	listenersMu sync.RWMutex
	listeners   []func(store.Utterance)

	preview preview
}

// New creates an App. Tracking does not start until Start is called.
func New(cfg Config) *App {
	s := cfg.Settings
	logger := cfg.Logger
	if logger == nil {
		logger = log.Component("app")
	}
	v := cfg.Vocabulary
	if v == nil {
		v = vocab.Default()
	}

	a := &App{
		settings:  s,
		store:     cfg.Store,
		hooks:     cfg.Hooks,
		publisher: cfg.Publisher,
		logger:    logger,
		camera:    cfg.Camera,
		detector:  cfg.Detector,
		state:     StateStopped,
		vocab:     v,
	}

	if a.camera == nil {
		a.camera = capture.NewCameraWithConfig(s.Camera)
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(s.Detector); err == nil {
			a.detector = mp
		} else {
			a.logger.Warn("face landmark detector unavailable", "error", err)
		}
	}

	a.estimator = gaze.NewEstimator(s.Gaze, s.Screen.Width, s.Screen.Height)
	a.classifier = blink.New(s.Blink)
	a.classifier.SetLogger(log.Component("blink"))

	opts := []selection.Option{}
	if cfg.Enhancer != nil {
		opts = append(opts, selection.WithEnhancer(cfg.Enhancer))
	}
	if cfg.Speaker != nil {
		opts = append(opts, selection.WithSpeaker(cfg.Speaker))
	}
	a.machine = selection.NewMachine(s.Selection, v, opts...)
	a.machine.OnComplete(a.handleUtterance)
	a.machine.OnChange(func(snap selection.Snapshot) {
		a.publish(EventSelection, snap)
	})

	a.dispatcher = dispatch.New(s.Dispatch, a.estimator.Layout(), a.machine)
	a.dispatcher.SetObserver(observer{a})

	a.loadScreen()
	return a
}

// Start opens the camera, loads the landmark model and starts the frame
// loop. A failure leaves tracking disabled and returns ErrTrackingDisabled.
func (a *App) Start() error {
	a.mu.Lock()
	if a.stopCh != nil || a.state == StateStarting {
		a.mu.Unlock()
		return nil
	}
	a.state = StateStarting
	a.message = ""
	a.mu.Unlock()
	a.publishTracking()

	if err := a.open(); err != nil {
		a.logger.Error("tracking disabled", "error", err)
		a.mu.Lock()
		a.state = StateDisabled
		a.message = messageFor(err)
		a.mu.Unlock()
		a.publishTracking()
		return fmt.Errorf("%w: %w", ErrTrackingDisabled, err)
	}

	session := a.startSession()

	a.trackMu.Lock()
	a.estimator.Reset()
	a.classifier.Reset()
	a.dispatcher.Reset()
	a.trackMu.Unlock()

	fps := a.settings.Tracking.ActiveFPS
	a.camera.SetFPS(fps)

	stopCh := make(chan struct{})
	done := make(chan struct{})
	a.mu.Lock()
	a.stopCh = stopCh
	a.done = done
	a.state = StateRunning
	a.fps = fps
	a.session = session
	a.face = false
	a.mu.Unlock()

	go a.runPipeline(stopCh, done)

	a.logger.Info("tracking started", "fps", fps, "session", session)
	a.publishTracking()
	return nil
}

// Stop halts the frame loop and releases the camera and the detector.
// No Detect call happens after Stop returns.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.done = nil
	a.mu.Unlock()
	if stopCh == nil {
		return
	}

	close(stopCh)
	<-done
	a.release()

	a.mu.Lock()
	a.state = StateStopped
	a.message = ""
	a.fps = 0
	a.face = false
	a.mu.Unlock()

	a.logger.Info("tracking stopped")
	a.publishTracking()
}

// Close stops tracking and waits for in-flight sentence and hook work.
func (a *App) Close() {
	a.Stop()
	a.machine.Close()
	if a.hooks != nil {
		a.hooks.Wait()
	}
}

// Status returns the current tracking status.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		State:   a.state,
		Message: a.message,
		FPS:     a.fps,
		Session: a.session,
		Face:    a.face,
	}
}

// Running reports whether the frame loop is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Selection returns the word picker.
func (a *App) Selection() *selection.Machine {
	return a.machine
}

// Vocabulary returns the active word tables.
func (a *App) Vocabulary() *vocab.Vocabulary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.vocab.Clone()
}

// SetVocabulary validates v, persists it when a store is configured and
// resets the picker onto it.
func (a *App) SetVocabulary(v *vocab.Vocabulary) error {
	if err := selection.CheckVocabulary(a.settings.Selection.Flow, v); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Vocabulary().Replace(v); err != nil {
			return fmt.Errorf("save vocabulary: %w", err)
		}
	}
	a.mu.Lock()
	a.vocab = v.Clone()
	a.mu.Unlock()
	a.machine.SetVocabulary(v.Clone())
	return nil
}

// screenSetting is the settings key of the last viewport reported by the board.
const screenSetting = "screen.size"

// SetScreen updates the viewport the cursor is mapped onto and remembers it
// for the next start.
func (a *App) SetScreen(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("screen size must be positive, got %gx%g", width, height)
	}
	a.applyScreen(width, height)

	if a.store != nil {
		value := strconv.FormatFloat(width, 'f', -1, 64) + "x" + strconv.FormatFloat(height, 'f', -1, 64)
		if err := a.store.Settings().Set(screenSetting, value); err != nil {
			a.logger.Warn("failed to save screen size", "error", err)
		}
	}
	return nil
}

func (a *App) applyScreen(width, height float64) {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()
	a.estimator.SetScreen(width, height)
	a.dispatcher.SetLayout(a.estimator.Layout())
}

// loadScreen restores the viewport saved by SetScreen.
func (a *App) loadScreen() {
	if a.store == nil {
		return
	}
	raw, err := a.store.Settings().Get(screenSetting)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Warn("failed to load screen size", "error", err)
		}
		return
	}
	w, h, ok := parseScreen(raw)
	if !ok {
		a.logger.Warn("ignoring invalid screen size", "value", raw)
		return
	}
	a.applyScreen(w, h)
}

func parseScreen(s string) (w, h float64, ok bool) {
	ws, hs, found := strings.Cut(s, "x")
	if !found {
		return 0, 0, false
	}
	w, err1 := strconv.ParseFloat(ws, 64)
	h, err2 := strconv.ParseFloat(hs, 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Threshold returns the current blink threshold.
func (a *App) Threshold() float64 {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()
	return a.classifier.Threshold()
}

// OnUtterance registers fn to be called after every finished sentence.
func (a *App) OnUtterance(fn func(store.Utterance)) {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// open acquires the camera and loads the landmark model.
func (a *App) open() error {
	if a.detector == nil {
		return fmt.Errorf("init detector: %w", detector.ErrUnavailable)
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	if err := a.initDetector(); err != nil {
		if cerr := a.camera.Close(); cerr != nil {
			a.logger.Warn("error closing camera", "error", cerr)
		}
		return err
	}
	return nil
}

// initDetector loads the model with a fixed number of attempts and a fixed backoff.
func (a *App) initDetector() error {
	initer, ok := a.detector.(detector.Initializer)
	if !ok {
		return nil
	}

	attempts := max(a.settings.Tracking.InitAttempts, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = initer.Init(); err == nil {
			return nil
		}
		a.logger.Warn("detector init failed", "attempt", i, "of", attempts, "error", err)
		if i < attempts {
			time.Sleep(a.settings.Tracking.InitBackoff)
		}
	}
	return &initError{attempts: attempts, err: err}
}

// release closes the camera and the detector and ends the session.
func (a *App) release() {
	if err := a.camera.Close(); err != nil {
		a.logger.Warn("error closing camera", "error", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Warn("error closing detector", "error", err)
		}
	}
	a.preview.clear()

	a.mu.Lock()
	session := a.session
	a.session = ""
	a.mu.Unlock()
	a.endSession(session)
}

func (a *App) startSession() string {
	if a.store == nil {
		return ""
	}
	s, err := a.store.Sessions().Start()
	if err != nil {
		a.logger.Warn("failed to start session", "error", err)
		return ""
	}
	return s.ID
}

func (a *App) endSession(id string) {
	if a.store == nil || id == "" {
		return
	}
	if err := a.store.Sessions().End(id); err != nil {
		a.logger.Warn("failed to end session", "session", id, "error", err)
	}
}

// initError marks a landmark model that could not be loaded.
type initError struct {
	attempts int
	err      error
}

func (e *initError) Error() string {
	return fmt.Sprintf("init detector after %d attempts: %v", e.attempts, e.err)
}

func (e *initError) Unwrap() error {
	return e.err
}

func messageFor(err error) string {
	var ie *initError
	if errors.As(err, &ie) || errors.Is(err, detector.ErrUnavailable) {
		return msgDetector
	}
	return msgCamera
}
