package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/blinktalk/internal/vocab"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("expected path %s, got %s", dbPath, s.Path())
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"sessions", "utterances", "vocabulary", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	for _, idx := range []string{"idx_utterances_session_id", "idx_utterances_created_at"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Settings().Set("flow", "subject")
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, _ := s.Settings().Get("flow"); v != "subject" {
		t.Errorf("expected setting to survive reopen, got %q", v)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.ID == "" || sess.EndedAt != nil {
		t.Fatalf("expected open session with ID, got %+v", sess)
	}

	if err := repo.End(sess.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := repo.End(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound ending twice, got %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.EndedAt == nil {
		t.Error("expected ended session")
	}

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := repo.List(10)
	if err != nil || len(list) != 1 {
		t.Errorf("expected 1 session, got %d (%v)", len(list), err)
	}
}

func TestUtterances(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Start()
	repo := s.Utterances()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &Utterance{
		SessionID: sess.ID,
		Raw:       "물 마시다",
		Sentence:  "물 마시고 싶어",
		Category:  "status",
		CoreWord:  "water",
		Predicate: "drink",
		Enhanced:  true,
		CreatedAt: base,
	}
	second := &Utterance{
		Raw:       "나 식사 배고프다",
		Sentence:  "나 식사 배고프다",
		Category:  "status",
		Subject:   "i",
		CoreWord:  "meal",
		Predicate: "hungry",
		CreatedAt: base.Add(time.Minute),
	}
	for _, u := range []*Utterance{first, second} {
		if err := repo.Create(u); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if u.ID == "" {
			t.Fatal("expected ID to be assigned")
		}
	}

	got, err := repo.GetByID(first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Sentence != first.Sentence || !got.Enhanced || got.Question || got.SessionID != sess.ID {
		t.Errorf("unexpected utterance %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("expected created_at %v, got %v", base, got.CreatedAt)
	}

	list, err := repo.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("expected newest first, got %d items", len(list))
	}
	if list[0].SessionID != "" {
		t.Errorf("expected no session, got %q", list[0].SessionID)
	}

	bySession, err := repo.ListBySession(sess.ID)
	if err != nil || len(bySession) != 1 || bySession[0].ID != first.ID {
		t.Errorf("expected only the session utterance, got %v (%v)", bySession, err)
	}

	if n, _ := repo.Count(); n != 2 {
		t.Errorf("expected 2 utterances, got %d", n)
	}
	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVocabulary(t *testing.T) {
	s := newTestStore(t)
	repo := s.Vocabulary()

	if _, err := repo.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	wrote, err := repo.Seed(vocab.Default())
	if err != nil || !wrote {
		t.Fatalf("expected seed to write, got %v, %v", wrote, err)
	}
	wrote, err = repo.Seed(vocab.Default())
	if err != nil || wrote {
		t.Errorf("expected second seed to be a no-op, got %v, %v", wrote, err)
	}

	v, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := vocab.Default()
	if len(v.Categories) != len(def.Categories) || v.Categories[2] != def.Categories[2] {
		t.Errorf("categories not preserved in order: %v", v.Categories)
	}
	if got := v.CoreWordsFor("status"); len(got) != 8 || got[4].ID != "water" {
		t.Errorf("core words not preserved: %v", got)
	}
	if got := v.PredicatesFor("status", "water"); len(got) != 4 || got[0].Label != "마시다" {
		t.Errorf("predicates not preserved: %v", got)
	}
	if got := v.SubjectPredicatesFor("status"); len(got) != 8 || got[0].Label != "배고파" {
		t.Errorf("subject predicates not preserved: %v", got)
	}
	if err := v.Validate(); err != nil {
		t.Errorf("loaded vocabulary invalid: %v", err)
	}

	small := &vocab.Vocabulary{
		Categories: []vocab.WordOption{{ID: "object", Label: "사물"}},
		Subjects:   []vocab.WordOption{{ID: "i", Label: "나"}},
		CoreWords:  map[string][]vocab.WordOption{"object": {{ID: "tv", Label: "TV"}}},
		Predicates: map[string][]vocab.WordOption{"object_tv": {{ID: "turn_on", Label: "켜다"}}},
	}
	if err := repo.Replace(small); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	v, _ = repo.Load()
	if len(v.Categories) != 1 || len(v.CoreWordsFor("status")) != 0 || v.SubjectPredicates != nil {
		t.Errorf("expected replaced vocabulary, got %+v", v)
	}

	bad := small.Clone()
	bad.Categories = nil
	if err := repo.Replace(bad); err == nil {
		t.Error("expected invalid vocabulary to be rejected")
	}
	if v, _ := repo.Load(); len(v.Categories) != 1 {
		t.Error("expected failed replace to leave data intact")
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("flow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if v, _ := repo.GetOr("flow", "coreword"); v != "coreword" {
		t.Errorf("expected default, got %q", v)
	}

	repo.Set("flow", "subject")
	repo.Set("flow", "coreword")
	repo.Set("gravity", "true")

	if v, _ := repo.Get("flow"); v != "coreword" {
		t.Errorf("expected overwrite, got %q", v)
	}
	all, err := repo.All()
	if err != nil || len(all) != 2 || all["gravity"] != "true" {
		t.Errorf("unexpected settings %v (%v)", all, err)
	}
}
