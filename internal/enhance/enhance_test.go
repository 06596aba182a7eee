package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithAPIKey("test-key"),
		WithBaseURL(url),
		WithRetry(2, time.Millisecond),
		WithLogger(quietLogger()),
	}
	c, err := NewClient(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"model": "gpt-4o-mini",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestClient_Enhance(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion(" \"물 마시고 싶어\" "))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	res, err := c.Enhance(context.Background(), &Request{
		Sentence:  "물 마시다",
		CoreWord:  "물",
		Predicate: "마시다",
		Category:  "상태",
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	if res.Sentence != "물 마시고 싶어" {
		t.Errorf("expected cleaned sentence, got %q", res.Sentence)
	}
	if !res.Enhanced {
		t.Error("expected Enhanced to be true")
	}
	if got.Model != "gpt-4o-mini" || got.Temperature != 0.8 || got.MaxTokens != 100 {
		t.Errorf("unexpected request parameters: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("expected system and user messages, got %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "물 마시다") {
		t.Errorf("expected prompt to include the sentence, got %q", got.Messages[1].Content)
	}
}

func TestClient_QuestionPrompt(t *testing.T) {
	p := userPrompt(&Request{Sentence: "물 마시다", Question: true})
	if !strings.Contains(p, "질문") {
		t.Errorf("expected question prompt, got %q", p)
	}
	if strings.Contains(userPrompt(&Request{Sentence: "물 마시다"}), "형식: 질문") {
		t.Error("expected statement prompt without question marker")
	}
}

func TestClient_PromptWithoutCoreWord(t *testing.T) {
	p := userPrompt(&Request{Sentence: "나 배고파", Subject: "나", Predicate: "배고파"})
	if strings.Contains(p, "핵심 단어") {
		t.Errorf("expected no core word line for a subject predicate sentence, got %q", p)
	}
	if !strings.Contains(userPrompt(&Request{Sentence: "물 마시다", CoreWord: "물"}), "- 핵심 단어: 물") {
		t.Error("expected core word line when a core word is chosen")
	}
}

func TestClient_EmptySentence(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	if _, err := c.Enhance(context.Background(), &Request{Sentence: "  "}); !errors.Is(err, ErrEmptySentence) {
		t.Errorf("expected ErrEmptySentence, got %v", err)
	}
}

func TestClient_Retry(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   bool
		retryable bool
	}{
		{"recovers after 503", []int{503, 200}, 2, false, false},
		{"recovers after 429", []int{429, 429, 200}, 3, false, false},
		{"gives up after retries", []int{500, 500, 500, 500}, 3, true, true},
		{"does not retry 401", []int{401, 200}, 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				status := tt.statuses[n-1]
				if status != http.StatusOK {
					w.WriteHeader(status)
					io.WriteString(w, `{"error":{"message":"nope","code":"x"}}`)
					return
				}
				io.WriteString(w, completion("좋아"))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			_, err := c.Enhance(context.Background(), &Request{Sentence: "기분 좋다"})

			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.IsRetryable() != tt.retryable {
					t.Errorf("expected retryable %v for %d", tt.retryable, apiErr.StatusCode)
				}
				if apiErr.Message != "nope" {
					t.Errorf("expected parsed message, got %q", apiErr.Message)
				}
			}
		})
	}
}

func TestClient_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Enhance(ctx, &Request{Sentence: "물 마시다"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Enhance(context.Background(), &Request{Sentence: "물 마시다"}); !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices, got %v", err)
	}
}

func TestCache(t *testing.T) {
	m := NewMock()
	m.EnhanceFunc = func(ctx context.Context, req *Request) (*Result, error) {
		return &Result{Sentence: req.Sentence + "!", Enhanced: true}, nil
	}
	c := NewCache(m, 2)
	ctx := context.Background()

	req := &Request{Sentence: "물 마시다", CoreWord: "물", Predicate: "마시다", Category: "상태"}
	first, err := c.Enhance(ctx, req)
	if err != nil || first.Cached {
		t.Fatalf("expected fresh result, got %+v, %v", first, err)
	}
	second, _ := c.Enhance(ctx, req)
	if !second.Cached || second.Sentence != "물 마시다!" {
		t.Errorf("expected cached result, got %+v", second)
	}
	if m.CallCount() != 1 {
		t.Errorf("expected 1 provider call, got %d", m.CallCount())
	}

	q := *req
	q.Question = true
	if CacheKey(&q) == CacheKey(req) {
		t.Error("expected question flag to change the key")
	}

	// Eviction keeps at most max entries.
	c.Enhance(ctx, &q)
	c.Enhance(ctx, &Request{Sentence: "a", CoreWord: "a", Category: "x"})
	if c.Len() != 2 {
		t.Errorf("expected 2 entries after eviction, got %d", c.Len())
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	m := NewFailingMock(boom)
	c := NewCache(m, 0)

	for i := 0; i < 2; i++ {
		if _, err := c.Enhance(context.Background(), &Request{Sentence: "x"}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if m.CallCount() != 2 || c.Len() != 0 {
		t.Errorf("expected errors to bypass cache, got %d calls and %d entries", m.CallCount(), c.Len())
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("p", nil) != nil {
		t.Error("expected nil for nil error")
	}
	err := WrapError("p", ErrNoChoices)
	if !errors.Is(err, ErrNoChoices) {
		t.Error("expected wrapped error to unwrap")
	}
	if !strings.Contains(err.Error(), "[p]") {
		t.Errorf("expected provider in message, got %q", err.Error())
	}
}
