package app

import (
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// preview keeps the latest camera frame as JPEG for the MJPEG stream.
// Frames are only encoded while someone is watching.
type preview struct {
	watchers atomic.Int32

	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

func (p *preview) update(frame *gocv.Mat) {
	if p.watchers.Load() == 0 || frame == nil || frame.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.mu.Lock()
	p.jpeg = data
	p.seq++
	p.mu.Unlock()
}

func (p *preview) clear() {
	p.mu.Lock()
	p.jpeg = nil
	p.mu.Unlock()
}

// WatchPreview registers a preview consumer. The returned func unregisters it.
func (a *App) WatchPreview() func() {
	a.preview.watchers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.preview.watchers.Add(-1) })
	}
}

// Preview returns the latest JPEG frame and its sequence number.
// ok is false while no frame is available.
func (a *App) Preview() (jpeg []byte, seq uint64, ok bool) {
	a.preview.mu.RLock()
	defer a.preview.mu.RUnlock()
	return a.preview.jpeg, a.preview.seq, a.preview.jpeg != nil
}
