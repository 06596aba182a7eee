// Package dispatch turns cursor zones and blink events into UI commands.
package dispatch

import (
	"sync"
	"time"

	"github.com/ayusman/blinktalk/internal/blink"
	"github.com/ayusman/blinktalk/internal/gaze"
)

// Direction is a navigation direction.
type Direction int

const (
	Left Direction = iota
	Right
)

func (d Direction) String() string {
	if d == Right {
		return "right"
	}
	return "left"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// CommandSink receives the debounced commands. Each method is called at most
// once per recognised gesture.
type CommandSink interface {
	Navigate(dir Direction)
	Confirm()
	Back()
}

// Command is a blink binding target.
type Command int

const (
	CommandNone Command = iota
	CommandConfirm
	CommandBack
)

func (c Command) String() string {
	switch c {
	case CommandConfirm:
		return "confirm"
	case CommandBack:
		return "back"
	default:
		return "none"
	}
}

// Bindings maps blink kinds to commands. Kinds not present are ignored.
type Bindings map[blink.Kind]Command

// DefaultBindings binds long blinks to confirm and double blinks to back.
func DefaultBindings() Bindings {
	return Bindings{
		blink.KindLong:   CommandConfirm,
		blink.KindDouble: CommandBack,
	}
}

// Observer is notified of dispatcher activity.
type Observer interface {
	ZoneChanged(from, to gaze.Zone)
	CommandFired(name string)
	// GazeChanged reports the first frame without a usable gaze after one
	// with it (false), and the first frame with it again (true).
	GazeChanged(visible bool)
}

// Config holds the dispatcher constants.
type Config struct {
	Cooldown time.Duration
	Bindings Bindings
}

// DefaultConfig returns a one second cooldown with DefaultBindings.
func DefaultConfig() Config {
	return Config{
		Cooldown: time.Second,
		Bindings: DefaultBindings(),
	}
}

// Dispatcher applies the excursion-and-return rule to cursor positions.
type Dispatcher struct {
	mu       sync.Mutex
	cfg      Config
	layout   gaze.Layout
	sink     CommandSink
	observer Observer

	prev      gaze.Zone
	lastFired time.Time
	lost      bool
}

// New creates a dispatcher that reports to sink.
func New(cfg Config, layout gaze.Layout, sink CommandSink) *Dispatcher {
	if cfg.Bindings == nil {
		cfg.Bindings = DefaultBindings()
	}
	return &Dispatcher{
		cfg:    cfg,
		layout: layout,
		sink:   sink,
		prev:   gaze.ZoneCenter,
	}
}

// SetObserver installs an optional observer.
func (d *Dispatcher) SetObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = o
}

// SetLayout replaces the zone layout after a screen resize.
func (d *Dispatcher) SetLayout(l gaze.Layout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layout = l
}

// Zone returns the zone seen on the last cursor frame.
func (d *Dispatcher) Zone() gaze.Zone {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prev
}

// HandleCursor processes one stabilized cursor x position observed at t.
func (d *Dispatcher) HandleCursor(x float64, t time.Time) {
	d.mu.Lock()
	cur := d.layout.ZoneAt(x)
	prev := d.prev
	d.prev = cur
	obs := d.observer
	found := d.lost
	d.lost = false

	fire := prev != gaze.ZoneCenter && cur == gaze.ZoneCenter &&
		(d.lastFired.IsZero() || t.Sub(d.lastFired) >= d.cfg.Cooldown)
	if fire {
		d.lastFired = t
	}
	d.mu.Unlock()

	if obs != nil && found {
		obs.GazeChanged(true)
	}
	if obs != nil && prev != cur {
		obs.ZoneChanged(prev, cur)
	}
	if !fire {
		return
	}

	dir := Left
	if prev == gaze.ZoneRight {
		dir = Right
	}
	if obs != nil {
		obs.CommandFired(dir.String())
	}
	d.sink.Navigate(dir)
}

// HandleNoGaze is called for frames without a usable face. Zone memory carries
// over so an excursion interrupted by a detection gap still fires on return.
func (d *Dispatcher) HandleNoGaze() {
	d.mu.Lock()
	lostNow := !d.lost
	d.lost = true
	obs := d.observer
	d.mu.Unlock()

	if obs != nil && lostNow {
		obs.GazeChanged(false)
	}
}

// GazeLost reports whether the last frame had no usable gaze.
func (d *Dispatcher) GazeLost() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lost
}

// HandleBlink routes a blink event through the bindings.
func (d *Dispatcher) HandleBlink(ev blink.Event) {
	d.mu.Lock()
	cmd := d.cfg.Bindings[ev.Kind]
	obs := d.observer
	d.mu.Unlock()

	if cmd == CommandNone {
		return
	}
	if obs != nil {
		obs.CommandFired(cmd.String())
	}
	switch cmd {
	case CommandConfirm:
		d.sink.Confirm()
	case CommandBack:
		d.sink.Back()
	}
}

// Reset returns the zone memory to center and clears the cooldown.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev = gaze.ZoneCenter
	d.lastFired = time.Time{}
	d.lost = false
}
