package speech

import (
	"context"
	"sync"
)

// Mock implements Speaker for testing.
type Mock struct {
	// SpeakFunc is called by Speak when set.
	SpeakFunc func(ctx context.Context, text, lang string) error

	mu     sync.Mutex
	spoken []MockCall
	stops  int
}

// MockCall records one Speak invocation.
type MockCall struct {
	Text string
	Lang string
}

// NewMock creates a mock that accepts everything.
func NewMock() *Mock {
	return &Mock{}
}

// Speak records the call.
func (m *Mock) Speak(ctx context.Context, text, lang string) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, MockCall{Text: text, Lang: lang})
	fn := m.SpeakFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, lang)
	}
	return nil
}

// Stop counts the call.
func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

// Calls returns the recorded Speak calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// Stops returns how many times Stop was called.
func (m *Mock) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
