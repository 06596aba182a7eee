// Package gaze turns iris landmarks into a stabilized on-screen cursor position.
package gaze

import (
	"math"

	"github.com/ayusman/blinktalk/internal/detector"
)

// VerticalMode selects how the mapped y coordinate is bounded.
type VerticalMode string

const (
	// VerticalLowerHalf restricts the cursor to the bottom half where the options live.
	VerticalLowerHalf VerticalMode = "lower-half"
	// VerticalFull keeps the full vertical range.
	VerticalFull VerticalMode = "full"
)

// GravityConfig controls snapping of the cursor toward zone centers.
type GravityConfig struct {
	Enabled bool
	// Radius is the distance in pixels from a zone center within which the pull applies.
	Radius float64
	// Strength is the pull fraction applied at the zone center (0-1). It fades to 0 at Radius.
	Strength float64
}

// Config holds the gaze estimation constants.
type Config struct {
	// Sensitivity is the eye-box fraction k in ratio = 0.5 + offset/(size*k).
	Sensitivity float64
	// RatioMin and RatioMax bound each eye's ratio to reject occlusion outliers.
	RatioMin float64
	RatioMax float64

	// ScaleX and ScaleY stretch small eye movements across the screen.
	ScaleX float64
	ScaleY float64
	// Mirror flips the x axis for a front-facing camera.
	Mirror bool

	// Margin keeps the cursor this many pixels inside the viewport.
	Margin   float64
	Vertical VerticalMode

	// Alpha is the exponential smoothing factor applied each frame.
	Alpha float64
	// MaxStep is the largest per-axis correction considered in a single frame, in pixels.
	MaxStep float64

	Gravity GravityConfig
	Bands   [3]float64
}

// DefaultConfig returns the tuned defaults for a commodity webcam.
func DefaultConfig() Config {
	return Config{
		Sensitivity: 0.8,
		RatioMin:    0.1,
		RatioMax:    0.9,
		ScaleX:      3.0,
		ScaleY:      4.0,
		Mirror:      true,
		Margin:      30,
		Vertical:    VerticalLowerHalf,
		Alpha:       0.3,
		MaxStep:     60,
		Gravity: GravityConfig{
			Enabled:  false,
			Radius:   150,
			Strength: 0.5,
		},
		Bands: DefaultBands,
	}
}

// Position is a point in screen pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sample is the result of one successful estimator update.
type Sample struct {
	Ratio    Ratio    `json:"ratio"`
	Target   Position `json:"target"`
	Position Position `json:"position"`
	Zone     Zone     `json:"zone"`
}

// Estimator owns the stabilized cursor for one tracking session.
// It is not safe for concurrent use; the frame loop is its only writer.
type Estimator struct {
	cfg    Config
	width  float64
	height float64
	layout Layout

	matrix  *Matrix
	offsetX float64
	offsetY float64

	pos         Position
	initialized bool
	lastRatio   Ratio
	hasRatio    bool
}

// NewEstimator creates an estimator for a screen of width x height pixels.
func NewEstimator(cfg Config, width, height float64) *Estimator {
	e := &Estimator{cfg: cfg}
	e.SetScreen(width, height)
	return e
}

// SetScreen updates the viewport size. The current position is re-bounded.
func (e *Estimator) SetScreen(width, height float64) {
	e.width = width
	e.height = height
	e.layout = NewLayout(width, e.cfg.Bands)
	if e.initialized {
		e.pos = e.bound(e.pos)
	}
}

// Screen returns the viewport size.
func (e *Estimator) Screen() (float64, float64) {
	return e.width, e.height
}

// Layout returns the zone layout for the current screen.
func (e *Estimator) Layout() Layout {
	return e.layout
}

// Update consumes one landmark set. With no usable face it returns false and leaves
// all state unchanged.
func (e *Estimator) Update(lm *detector.FaceLandmarks) (Sample, bool) {
	if lm == nil {
		return Sample{}, false
	}
	r, ok := AverageRatio(lm, e.cfg)
	if !ok {
		return Sample{}, false
	}
	return e.UpdateRatio(r), true
}

// UpdateRatio advances the cursor from an averaged gaze ratio.
func (e *Estimator) UpdateRatio(r Ratio) Sample {
	e.lastRatio = r
	e.hasRatio = true

	target := e.Map(r)
	if e.cfg.Gravity.Enabled {
		target.X = e.attract(target.X)
	}
	e.stabilize(target)

	return Sample{
		Ratio:    r,
		Target:   target,
		Position: e.pos,
		Zone:     e.layout.ZoneAt(e.pos.X),
	}
}

// Map converts a gaze ratio to a bounded screen point without touching the cursor.
func (e *Estimator) Map(r Ratio) Position {
	var p Position
	if e.matrix != nil {
		p = e.matrix.Apply(r)
	} else {
		x := r.X
		if e.cfg.Mirror {
			x = 1 - x
		}
		x += e.offsetX
		y := r.Y + e.offsetY

		p = Position{
			X: e.width * ((x-0.5)*e.cfg.ScaleX + 0.5),
			Y: e.height * ((y-0.5)*e.cfg.ScaleY + 0.5),
		}
	}
	return e.bound(p)
}

func (e *Estimator) bound(p Position) Position {
	m := e.cfg.Margin
	p.X = clamp(p.X, m, math.Max(m, e.width-m))

	minY := m
	if e.cfg.Vertical != VerticalFull {
		minY = e.height / 2
	}
	p.Y = clamp(p.Y, minY, math.Max(minY, e.height-m))
	return p
}

// attract pulls x toward the center of the zone it falls in, harder the closer it is.
func (e *Estimator) attract(x float64) float64 {
	g := e.cfg.Gravity
	if g.Radius <= 0 || g.Strength <= 0 {
		return x
	}
	c := e.layout.Center(e.layout.ZoneAt(x))
	d := math.Abs(x - c)
	if d >= g.Radius {
		return x
	}
	pull := g.Strength * (1 - d/g.Radius)
	return x + (c-x)*pull
}

func (e *Estimator) stabilize(target Position) {
	if !e.initialized {
		e.pos = target
		e.initialized = true
		return
	}

	dx := clamp(target.X-e.pos.X, -e.cfg.MaxStep, e.cfg.MaxStep)
	dy := clamp(target.Y-e.pos.Y, -e.cfg.MaxStep, e.cfg.MaxStep)
	e.pos.X += dx * e.cfg.Alpha
	e.pos.Y += dy * e.cfg.Alpha
}

// Position returns the stabilized cursor, and false before the first gaze sample.
func (e *Estimator) Position() (Position, bool) {
	return e.pos, e.initialized
}

// LastRatio returns the most recent averaged gaze ratio.
func (e *Estimator) LastRatio() (Ratio, bool) {
	return e.lastRatio, e.hasRatio
}

// QuickCalibrate treats the current cursor as "looking at the screen center" and
// offsets the default mapping accordingly. It returns false before the first sample.
func (e *Estimator) QuickCalibrate() bool {
	if !e.initialized || e.width <= 0 || e.height <= 0 {
		return false
	}
	e.offsetX = (e.width/2 - e.pos.X) / e.width * 0.5
	e.offsetY = (e.height/2 - e.pos.Y) / e.height * 0.5
	return true
}

// Offsets returns the quick-calibration offsets.
func (e *Estimator) Offsets() (float64, float64) {
	return e.offsetX, e.offsetY
}

// SetMatrix installs a fitted calibration transform. nil restores the default mapping.
func (e *Estimator) SetMatrix(m *Matrix) {
	e.matrix = m
}

// Matrix returns the active calibration transform, if any.
func (e *Estimator) Matrix() *Matrix {
	return e.matrix
}

// ResetCalibration drops the calibration matrix and the quick-calibration offsets.
func (e *Estimator) ResetCalibration() {
	e.matrix = nil
	e.offsetX = 0
	e.offsetY = 0
}

// Reset forgets the cursor so the next sample re-initializes it.
func (e *Estimator) Reset() {
	e.pos = Position{}
	e.initialized = false
	e.hasRatio = false
}
