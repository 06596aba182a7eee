package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results frame by frame.
type MockDetector struct {
	mu      sync.Mutex
	face    *FaceLandmarks
	queue   []*FaceLandmarks
	err     error
	initErr []error
	calls   int
	inits   int
	closed  bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFace sets the face returned by Detect once the queue is drained. nil means no face.
func (m *MockDetector) SetFace(face *FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.face = face
}

// Queue appends faces that are returned one per Detect call before falling back to SetFace.
// A nil entry yields a frame with no face.
func (m *MockDetector) Queue(faces ...*FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, faces...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FailInit makes the next len(errs) Init calls return the given errors in order.
func (m *MockDetector) FailInit(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = append(m.initErr, errs...)
}

// Init implements Initializer.
func (m *MockDetector) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	if len(m.initErr) > 0 {
		err := m.initErr[0]
		m.initErr = m.initErr[1:]
		return err
	}
	m.closed = false
	return nil
}

// Detect returns the next queued face, the configured face, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*FaceLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		f := m.queue[0]
		m.queue = m.queue[1:]
		return f, nil
	}
	return m.face, nil
}

// Close marks the mock as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns the number of Detect invocations.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Inits returns the number of Init invocations.
func (m *MockDetector) Inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}

// Closed reports whether Close has been called since the last successful Init.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Synthetic face geometry. Both eyes are 0.06 wide and sit at y=0.45.
const (
	mockEyeWidth    = 0.06
	mockEyeY        = 0.45
	mockLeftEyeX    = 0.40
	mockRightEyeX   = 0.60
	mockIrisSpread  = 0.004
	mockSensitivity = 0.8
)

// FaceWith builds a refined landmark set whose gaze ratio is (gx, gy) and whose
// eye aspect ratio is ear for both eyes.
func FaceWith(gx, gy, ear float64) *FaceLandmarks {
	f := &FaceLandmarks{
		Points: make([]Point3D, NumLandmarks),
		Score:  0.95,
	}

	gap := ear * mockEyeWidth
	placeEye(f, mockLeftEyeX, -1, gap, gx, gy,
		LeftEyeOuter, LeftEyeInner, LeftEyeTop, LeftEyeBottom, LeftEyeTop2, LeftEyeBottom2, LeftIrisStart)
	placeEye(f, mockRightEyeX, 1, gap, gx, gy,
		RightEyeOuter, RightEyeInner, RightEyeTop, RightEyeBottom, RightEyeTop2, RightEyeBottom2, RightIrisStart)

	return f
}

// placeEye writes one eye's box, lid pairs and iris into f. side is -1 for the
// left eye (outer corner at smaller x) and 1 for the right eye.
func placeEye(f *FaceLandmarks, cx, side, gap, gx, gy float64, outer, inner, top, bottom, top2, bottom2, iris int) {
	half := mockEyeWidth / 2
	f.Points[outer] = Point3D{X: cx + side*half, Y: mockEyeY}
	f.Points[inner] = Point3D{X: cx - side*half, Y: mockEyeY}
	f.Points[top] = Point3D{X: cx, Y: mockEyeY - gap/2}
	f.Points[bottom] = Point3D{X: cx, Y: mockEyeY + gap/2}
	f.Points[top2] = Point3D{X: cx + 0.01, Y: mockEyeY - gap/2}
	f.Points[bottom2] = Point3D{X: cx + 0.01, Y: mockEyeY + gap/2}

	ix := cx + (gx-0.5)*mockEyeWidth*mockSensitivity
	iy := mockEyeY + (gy-0.5)*gap*mockSensitivity

	f.Points[iris] = Point3D{X: ix, Y: iy}
	f.Points[iris+1] = Point3D{X: ix + mockIrisSpread, Y: iy}
	f.Points[iris+2] = Point3D{X: ix, Y: iy - mockIrisSpread}
	f.Points[iris+3] = Point3D{X: ix - mockIrisSpread, Y: iy}
	f.Points[iris+4] = Point3D{X: ix, Y: iy + mockIrisSpread}
}

// OpenEyesFace returns a face with open eyes looking at gaze ratio (gx, gy).
func OpenEyesFace(gx, gy float64) *FaceLandmarks {
	return FaceWith(gx, gy, 0.3)
}

// ClosedEyesFace returns a face with both eyes closed.
func ClosedEyesFace() *FaceLandmarks {
	return FaceWith(0.5, 0.5, 0.05)
}
