package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/blinktalk/internal/log"
)

func scriptPlugin(t *testing.T, name, script string, events ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest:   Manifest{Name: name, Executable: name + ".sh", Events: events},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, "ok", `cat <<'EOF'
{"success":true,"data":{"message":"done"}}
EOF
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: EventUtterance, Sentence: "TV 켜다"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("expected success, got %+v", resp)
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil || data["message"] != "done" {
		t.Errorf("unexpected data %s (%v)", resp.Data, err)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// Echo the request back as data.
	p := scriptPlugin(t, "echo", `input=$(cat)
printf '{"success":true,"data":%s}' "$input"
`)
	p.Manifest.Config = json.RawMessage(`{"room":"bedroom"}`)

	req := &Request{
		Event:     EventUtterance,
		Sentence:  "TV 켜다",
		Category:  "object",
		CoreWord:  "tv",
		Predicate: "turn_on",
	}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to parse echoed request: %v", err)
	}
	if got.Event != EventUtterance || got.Sentence != "TV 켜다" || got.CoreWord != "tv" || got.Predicate != "turn_on" {
		t.Errorf("plugin received unexpected request %+v", got)
	}
	if string(got.Config) != `{"room":"bedroom"}` {
		t.Errorf("expected manifest config to be passed, got %s", got.Config)
	}
}

func TestExecutor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		check   func(t *testing.T, resp *Response, err error)
	}{
		{
			name:    "timeout",
			script:  "exec sleep 5\n",
			timeout: 100 * time.Millisecond,
			check: func(t *testing.T, resp *Response, err error) {
				if !errors.Is(err, ErrTimeout) {
					t.Errorf("expected ErrTimeout, got %v", err)
				}
			},
		},
		{
			name:   "error response",
			script: `echo '{"success":false,"error":"bridge offline"}'` + "\n",
			check: func(t *testing.T, resp *Response, err error) {
				if err != nil {
					t.Fatalf("expected parsed response, got %v", err)
				}
				if resp.Success || resp.Error != "bridge offline" {
					t.Errorf("unexpected response %+v", resp)
				}
			},
		},
		{
			name:   "invalid json",
			script: "echo not json\n",
			check: func(t *testing.T, resp *Response, err error) {
				if err == nil || !strings.Contains(err.Error(), "parse plugin response") {
					t.Errorf("expected parse error, got %v", err)
				}
			},
		},
		{
			name:   "non-zero exit",
			script: "echo boom >&2\nexit 3\n",
			check: func(t *testing.T, resp *Response, err error) {
				if err == nil || !strings.Contains(err.Error(), "boom") {
					t.Errorf("expected stderr in error, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "p", tt.script)
			timeout := tt.timeout
			if timeout == 0 {
				timeout = 5 * time.Second
			}
			resp, err := NewExecutor(timeout).Execute(context.Background(), p, &Request{Event: EventUtterance})
			tt.check(t, resp, err)
		})
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if got := NewExecutor(0).Timeout(); got != 5*time.Second {
		t.Errorf("expected 5s default, got %v", got)
	}
}

func TestHooks_Fire(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "received.json")
	for _, m := range []Manifest{
		{Name: "recorder", Executable: "run.sh", Events: []string{EventUtterance}},
		{Name: "other", Executable: "run.sh", Events: []string{"tracking"}},
	} {
		dir := writeManifest(t, root, m)
		script := "#!/bin/sh\ncat > " + out + ".$(basename $(pwd))\necho '{\"success\":true}'\n"
		if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
			t.Fatal(err)
		}
	}

	manager := newTestManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	hooks := NewHooks(manager, NewExecutor(5*time.Second))
	hooks.SetLogger(log.Discard())

	hooks.Fire(Request{Event: EventUtterance, Sentence: "조명 켜다", Category: "object"})
	hooks.Wait()

	data, err := os.ReadFile(out + ".recorder")
	if err != nil {
		t.Fatalf("expected recorder plugin to run: %v", err)
	}
	var got Request
	if err := json.Unmarshal(data, &got); err != nil || got.Sentence != "조명 켜다" {
		t.Errorf("unexpected request %s (%v)", data, err)
	}
	if _, err := os.Stat(out + ".other"); !os.IsNotExist(err) {
		t.Error("expected unsubscribed plugin not to run")
	}
}
