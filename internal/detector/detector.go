package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrUnavailable is returned when the landmark model cannot be loaded.
var ErrUnavailable = errors.New("landmark detector unavailable")

// Detector defines the interface for face landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the landmarks of the single tracked face.
	// Returns nil and no error if no face is found.
	Detect(frame *gocv.Mat) (*FaceLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Initializer is implemented by detectors that load a model before the first frame.
// Init is safe to call repeatedly; it is a no-op once the model is loaded.
type Initializer interface {
	Init() error
}

// Config holds configuration options for face landmark detection.
type Config struct {
	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// RefineLandmarks enables the iris refinement model (default: true).
	RefineLandmarks bool

	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:         1,
		RefineLandmarks:  true,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}
