package enhance

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// EnhanceFunc is called by Enhance. If nil the original sentence is returned unchanged.
	EnhanceFunc func(ctx context.Context, req *Request) (*Result, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Enhance invocation.
type MockCall struct {
	Request Request
	Time    time.Time
}

// NewMock creates a mock that echoes the original sentence.
func NewMock() *Mock {
	return &Mock{}
}

// NewFailingMock creates a mock whose every call fails with err.
func NewFailingMock(err error) *Mock {
	return &Mock{
		EnhanceFunc: func(ctx context.Context, req *Request) (*Result, error) {
			return nil, err
		},
	}
}

// Enhance records the call and delegates to EnhanceFunc.
func (m *Mock) Enhance(ctx context.Context, req *Request) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Request: *req, Time: time.Now()})
	m.mu.Unlock()

	if m.EnhanceFunc != nil {
		return m.EnhanceFunc(ctx, req)
	}
	return &Result{Sentence: req.Sentence}, nil
}

// Calls returns the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
