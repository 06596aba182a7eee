package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the preview at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// PreviewSource provides encoded camera frames.
type PreviewSource interface {
	// WatchPreview asks the source to start encoding frames. The returned func releases it.
	WatchPreview() func()
	// Preview returns the latest JPEG frame and its sequence number.
	Preview() (jpeg []byte, seq uint64, ok bool)
}

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	source PreviewSource
}

// NewStreamHandler creates a new StreamHandler over source.
func NewStreamHandler(source PreviewSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	release := h.source.WatchPreview()
	defer release()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq, ok := h.source.Preview()
		if !ok || seq == last {
			continue
		}
		last = seq

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
