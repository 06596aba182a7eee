package gaze

import (
	"math"

	"github.com/ayusman/blinktalk/internal/detector"
)

// Ratio is the iris displacement within the eye box, nominally in [0,1] per axis.
type Ratio struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Eye names the landmarks describing one eye.
type Eye struct {
	Outer, Inner, Top, Bottom int
	IrisStart                 int
}

var (
	// LeftEye is the subject's left eye.
	LeftEye = Eye{
		Outer:     detector.LeftEyeOuter,
		Inner:     detector.LeftEyeInner,
		Top:       detector.LeftEyeTop,
		Bottom:    detector.LeftEyeBottom,
		IrisStart: detector.LeftIrisStart,
	}
	// RightEye is the subject's right eye.
	RightEye = Eye{
		Outer:     detector.RightEyeOuter,
		Inner:     detector.RightEyeInner,
		Top:       detector.RightEyeTop,
		Bottom:    detector.RightEyeBottom,
		IrisStart: detector.RightIrisStart,
	}
)

// minEyeSize guards against division by a collapsed eye box.
const minEyeSize = 1e-9

// EyeRatio computes the clamped gaze ratio for one eye.
// It returns false if the iris or the eye corners are missing.
func EyeRatio(lm *detector.FaceLandmarks, eye Eye, cfg Config) (Ratio, bool) {
	iris, ok := lm.Centroid(eye.IrisStart, detector.IrisPoints)
	if !ok {
		return Ratio{}, false
	}
	outer, ok1 := lm.At(eye.Outer)
	inner, ok2 := lm.At(eye.Inner)
	if !ok1 || !ok2 {
		return Ratio{}, false
	}

	width := math.Abs(inner.X - outer.X)
	if width < minEyeSize {
		return Ratio{}, false
	}
	centerX := (outer.X + inner.X) / 2

	// Without lid points the eye is assumed half as tall as it is wide.
	height := width * 0.5
	centerY := (outer.Y + inner.Y) / 2
	top, ok3 := lm.At(eye.Top)
	bottom, ok4 := lm.At(eye.Bottom)
	if ok3 && ok4 {
		if h := math.Abs(bottom.Y - top.Y); h >= minEyeSize {
			height = h
		}
		centerY = (top.Y + bottom.Y) / 2
	}

	r := Ratio{
		X: 0.5 + (iris.X-centerX)/(width*cfg.Sensitivity),
		Y: 0.5 + (iris.Y-centerY)/(height*cfg.Sensitivity),
	}
	r.X = clamp(r.X, cfg.RatioMin, cfg.RatioMax)
	r.Y = clamp(r.Y, cfg.RatioMin, cfg.RatioMax)
	return r, true
}

// AverageRatio averages both eyes' ratios. If only one eye is usable its ratio is returned.
func AverageRatio(lm *detector.FaceLandmarks, cfg Config) (Ratio, bool) {
	left, okL := EyeRatio(lm, LeftEye, cfg)
	right, okR := EyeRatio(lm, RightEye, cfg)

	switch {
	case okL && okR:
		return Ratio{X: (left.X + right.X) / 2, Y: (left.Y + right.Y) / 2}, true
	case okL:
		return left, true
	case okR:
		return right, true
	default:
		return Ratio{}, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
