package gaze

import (
	"errors"
	"math"
)

var (
	// ErrInsufficientPoints is returned when fewer than three correspondences are available.
	ErrInsufficientPoints = errors.New("gaze: at least 3 calibration points required")

	// ErrDegenerateFit is returned when the gaze samples do not vary enough to fit.
	ErrDegenerateFit = errors.New("gaze: calibration points are degenerate")
)

// MinCalibrationPoints is the smallest number of correspondences FitAffine accepts.
const MinCalibrationPoints = 3

// DefaultTargets are the five calibration targets as fractions of the screen.
var DefaultTargets = []Ratio{
	{X: 0.5, Y: 0.5},
	{X: 0.2, Y: 0.2},
	{X: 0.8, Y: 0.2},
	{X: 0.2, Y: 0.8},
	{X: 0.8, Y: 0.8},
}

// Matrix is an affine map from a raw gaze ratio to screen pixels:
// x = A*gx + B*gy + TX, y = C*gx + D*gy + TY.
type Matrix struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	TX float64 `json:"tx"`
	TY float64 `json:"ty"`
}

// Apply maps a gaze ratio through the transform.
func (m *Matrix) Apply(r Ratio) Position {
	return Position{
		X: m.A*r.X + m.B*r.Y + m.TX,
		Y: m.C*r.X + m.D*r.Y + m.TY,
	}
}

// Point is one confirmed gaze/screen correspondence.
type Point struct {
	Ratio  Ratio    `json:"ratio"`
	Screen Position `json:"screen"`
}

// FitAffine fits the transform by per-axis least squares. Each screen axis is
// regressed on gx and gy separately and the intercept absorbs the remainder.
func FitAffine(points []Point) (*Matrix, error) {
	if len(points) < MinCalibrationPoints {
		return nil, ErrInsufficientPoints
	}

	n := float64(len(points))
	var sgx, sgy, ssx, ssy, sgx2, sgy2, sgxsx, sgysx, sgxsy, sgysy float64
	for _, p := range points {
		gx, gy := p.Ratio.X, p.Ratio.Y
		sx, sy := p.Screen.X, p.Screen.Y
		sgx += gx
		sgy += gy
		ssx += sx
		ssy += sy
		sgx2 += gx * gx
		sgy2 += gy * gy
		sgxsx += gx * sx
		sgysx += gy * sx
		sgxsy += gx * sy
		sgysy += gy * sy
	}

	denX := n*sgx2 - sgx*sgx
	denY := n*sgy2 - sgy*sgy
	if math.Abs(denX) < 1e-12 || math.Abs(denY) < 1e-12 {
		return nil, ErrDegenerateFit
	}

	m := &Matrix{
		A: (n*sgxsx - sgx*ssx) / denX,
		B: (n*sgysx - sgy*ssx) / denY,
		C: (n*sgxsy - sgx*ssy) / denX,
		D: (n*sgysy - sgy*ssy) / denY,
	}
	m.TX = (ssx - m.A*sgx - m.B*sgy) / n
	m.TY = (ssy - m.C*sgx - m.D*sgy) / n
	return m, nil
}

// Calibrator walks the user through a fixed list of on-screen targets and
// collects the gaze ratio observed at each.
type Calibrator struct {
	targets         []Ratio
	width, height   float64
	samplesPerPoint int

	current int
	buf     []Ratio
	points  []Point
}

// NewCalibrator creates a calibration flow over DefaultTargets.
// samplesPerPoint ratios are averaged per target; values below 1 mean 1.
func NewCalibrator(width, height float64, samplesPerPoint int) *Calibrator {
	if samplesPerPoint < 1 {
		samplesPerPoint = 1
	}
	return &Calibrator{
		targets:         DefaultTargets,
		width:           width,
		height:          height,
		samplesPerPoint: samplesPerPoint,
	}
}

// Target returns the current target in screen pixels, and false when the flow is done.
func (c *Calibrator) Target() (Position, bool) {
	if c.Done() {
		return Position{}, false
	}
	t := c.targets[c.current]
	return Position{X: t.X * c.width, Y: t.Y * c.height}, true
}

// Add records one gaze sample for the current target. It returns true when the
// target collected enough samples and the flow advanced.
func (c *Calibrator) Add(r Ratio) bool {
	if c.Done() {
		return false
	}
	c.buf = append(c.buf, r)
	if len(c.buf) < c.samplesPerPoint {
		return false
	}

	var avg Ratio
	for _, s := range c.buf {
		avg.X += s.X
		avg.Y += s.Y
	}
	avg.X /= float64(len(c.buf))
	avg.Y /= float64(len(c.buf))

	target, _ := c.Target()
	c.points = append(c.points, Point{Ratio: avg, Screen: target})
	c.buf = c.buf[:0]
	c.current++
	return true
}

// Done reports whether every target has been recorded.
func (c *Calibrator) Done() bool {
	return c.current >= len(c.targets)
}

// Progress returns the number of recorded targets and the total.
func (c *Calibrator) Progress() (int, int) {
	return c.current, len(c.targets)
}

// Points returns the recorded correspondences.
func (c *Calibrator) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Fit fits a transform from the points recorded so far.
func (c *Calibrator) Fit() (*Matrix, error) {
	return FitAffine(c.points)
}
