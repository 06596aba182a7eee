// Package detector provides face landmark detection interfaces and types for gaze and blink tracking.
package detector

import "math"

// Face mesh landmark indices following the MediaPipe FaceMesh convention.
// Iris points (468-477) are only present when landmark refinement is enabled.
const (
	// Left eye box: outer corner, inner corner, upper lid, lower lid.
	LeftEyeOuter  = 33
	LeftEyeInner  = 133
	LeftEyeTop    = 159
	LeftEyeBottom = 145

	// Second left vertical pair used by the eye aspect ratio.
	LeftEyeTop2    = 158
	LeftEyeBottom2 = 153

	// Right eye box: outer corner, inner corner, upper lid, lower lid.
	RightEyeOuter  = 263
	RightEyeInner  = 362
	RightEyeTop    = 386
	RightEyeBottom = 374

	// Second right vertical pair used by the eye aspect ratio.
	RightEyeTop2    = 385
	RightEyeBottom2 = 380

	// LeftIrisStart is the first of the five left iris points.
	LeftIrisStart = 468
	// RightIrisStart is the first of the five right iris points.
	RightIrisStart = 473
	// IrisPoints is the number of points per iris.
	IrisPoints = 5

	// NumBaseLandmarks is the mesh size without iris refinement.
	NumBaseLandmarks = 468
	// NumLandmarks is the mesh size with iris refinement.
	NumLandmarks = 478
)

// Point3D represents a point in normalized image space. X and Y are in [0,1].
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks is the landmark set of one detected face for one frame.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// Len returns the number of points in the set.
func (f *FaceLandmarks) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Points)
}

// At returns the point at index i, and false if the set does not contain it.
func (f *FaceLandmarks) At(i int) (Point3D, bool) {
	if f == nil || i < 0 || i >= len(f.Points) {
		return Point3D{}, false
	}
	return f.Points[i], true
}

// HasIris reports whether the refined iris points are present.
func (f *FaceLandmarks) HasIris() bool {
	return f.Len() >= NumLandmarks
}

// Distance2D returns the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Centroid returns the mean of count consecutive points starting at start.
// It returns false if any of them is missing.
func (f *FaceLandmarks) Centroid(start, count int) (Point3D, bool) {
	if count <= 0 || start < 0 || start+count > f.Len() {
		return Point3D{}, false
	}

	var c Point3D
	for i := start; i < start+count; i++ {
		p := f.Points[i]
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(count)
	c.X /= n
	c.Y /= n
	c.Z /= n
	return c, true
}
