package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/blinktalk/internal/log"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()
	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return dir
}

func newTestManager(dir string) *Manager {
	m := NewManager(dir)
	m.SetLogger(log.Discard())
	return m
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, Manifest{
		Name:        "home-bridge",
		Version:     "1.0.0",
		Description: "Forwards object requests",
		Executable:  "bridge",
		Events:      []string{EventUtterance},
		Config:      json.RawMessage(`{"url":"http://hub.local"}`),
	})

	manager := newTestManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "home-bridge" || p.Manifest.Version != "1.0.0" {
		t.Errorf("unexpected manifest %+v", p.Manifest)
	}
	if p.Path != dir || p.Executable != filepath.Join(dir, "bridge") {
		t.Errorf("unexpected paths %q %q", p.Path, p.Executable)
	}
	if !p.Manifest.Handles(EventUtterance) || p.Manifest.Handles("tracking") {
		t.Errorf("unexpected event subscription %v", p.Manifest.Events)
	}
}

func TestManager_ForEvent(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{Name: "b-logger", Executable: "run", Events: []string{EventUtterance, "tracking"}})
	writeManifest(t, root, Manifest{Name: "a-typer", Executable: "run", Events: []string{EventUtterance}})
	writeManifest(t, root, Manifest{Name: "c-status", Executable: "run", Events: []string{"tracking"}})

	manager := newTestManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	got := manager.ForEvent(EventUtterance)
	if len(got) != 2 || got[0].Manifest.Name != "a-typer" || got[1].Manifest.Name != "b-logger" {
		t.Errorf("expected name-ordered utterance plugins, got %v", got)
	}
	if len(manager.ForEvent("unknown")) != 0 {
		t.Error("expected no plugins for unknown event")
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{Name: "good", Executable: "run"})
	writeManifest(t, root, Manifest{Name: "no-exec"})

	bad := filepath.Join(root, "broken")
	os.MkdirAll(bad, 0755)
	os.WriteFile(filepath.Join(bad, manifestFile), []byte("{not json"), 0644)

	os.MkdirAll(filepath.Join(root, "empty"), 0755)
	os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0644)

	manager := newTestManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Errorf("expected only the valid plugin, got %v", plugins)
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, Manifest{Name: "gone", Executable: "run"})

	manager := newTestManager(root)
	manager.Discover()
	os.RemoveAll(dir)
	manager.Discover()

	if _, err := manager.Get("gone"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected removed plugin to disappear, got %v", err)
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := newTestManager(filepath.Join(t.TempDir(), "missing"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("expected no error for missing dir, got %v", err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{Name: "typer", Executable: "run"})

	manager := newTestManager(root)
	manager.Discover()

	p, err := manager.Get("typer")
	if err != nil || p.Manifest.Name != "typer" {
		t.Errorf("Get() = %v, %v", p, err)
	}
	if _, err := manager.Get("nope"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
	if manager.PluginDir() != root {
		t.Errorf("expected plugin dir %q, got %q", root, manager.PluginDir())
	}
}
