package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakePreview struct {
	mu       sync.Mutex
	watchers int
	frame    []byte
	seq      uint64
}

func (p *fakePreview) WatchPreview() func() {
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.watchers--
		p.mu.Unlock()
	}
}

func (p *fakePreview) Preview() ([]byte, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame, p.seq, p.frame != nil
}

func (p *fakePreview) Watchers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watchers
}

func TestStreamHandler(t *testing.T) {
	src := &fakePreview{frame: []byte{0xFF, 0xD8, 0xFF, 0xD9}, seq: 1}
	hs := httptest.NewServer(NewStreamHandler(src))
	defer hs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, hs.URL, nil)
	resp, err := hs.Client().Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	want := []string{"--frame", "Content-Type: image/jpeg", "Content-Length: 4"}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if src.Watchers() != 1 {
		t.Errorf("watchers = %d while streaming, want 1", src.Watchers())
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for src.Watchers() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if src.Watchers() != 0 {
		t.Error("stream did not release the preview after disconnect")
	}
}

func TestHub_PublishWithoutClients(t *testing.T) {
	h := NewHub()
	h.Publish("cursor", map[string]float64{"x": 1})
	if h.Clients() != 0 {
		t.Errorf("Clients() = %d", h.Clients())
	}
	h.Close()
	h.Publish("cursor", func() {}) // unencodable payloads are dropped
}
