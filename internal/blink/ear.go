package blink

import "github.com/ayusman/blinktalk/internal/detector"

// eyePoints are the six landmarks used for one eye's aspect ratio.
type eyePoints struct {
	top, bottom   int
	top2, bottom2 int
	outer, inner  int
}

var (
	leftEyePoints = eyePoints{
		top: detector.LeftEyeTop, bottom: detector.LeftEyeBottom,
		top2: detector.LeftEyeTop2, bottom2: detector.LeftEyeBottom2,
		outer: detector.LeftEyeOuter, inner: detector.LeftEyeInner,
	}
	rightEyePoints = eyePoints{
		top: detector.RightEyeTop, bottom: detector.RightEyeBottom,
		top2: detector.RightEyeTop2, bottom2: detector.RightEyeBottom2,
		outer: detector.RightEyeOuter, inner: detector.RightEyeInner,
	}
)

func eyeEAR(lm *detector.FaceLandmarks, e eyePoints) (float64, bool) {
	idx := [...]int{e.top, e.bottom, e.top2, e.bottom2, e.outer, e.inner}
	var p [6]detector.Point3D
	for i, j := range idx {
		pt, ok := lm.At(j)
		if !ok {
			return 0, false
		}
		p[i] = pt
	}

	h := detector.Distance2D(p[4], p[5])
	if h <= 0 {
		return 0, false
	}
	v1 := detector.Distance2D(p[0], p[1])
	v2 := detector.Distance2D(p[2], p[3])
	return (v1 + v2) / (2 * h), true
}

// EAR returns the eye aspect ratio averaged over both eyes, or the single usable
// eye's value. It returns false when neither eye can be measured.
func EAR(lm *detector.FaceLandmarks) (float64, bool) {
	if lm == nil {
		return 0, false
	}
	l, okL := eyeEAR(lm, leftEyePoints)
	r, okR := eyeEAR(lm, rightEyePoints)
	switch {
	case okL && okR:
		return (l + r) / 2, true
	case okL:
		return l, true
	case okR:
		return r, true
	}
	return 0, false
}
