package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Utterance is a sentence that was spoken.
type Utterance struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	Raw       string    `json:"raw"`
	Sentence  string    `json:"sentence"`
	Category  string    `json:"category"`
	Subject   string    `json:"subject,omitempty"`
	CoreWord  string    `json:"coreWord"`
	Predicate string    `json:"predicate"`
	Question  bool      `json:"question"`
	Enhanced  bool      `json:"enhanced"`
	CreatedAt time.Time `json:"createdAt"`
}

// UtteranceRepository records spoken sentences.
type UtteranceRepository struct {
	db *sql.DB
}

// Utterances returns the utterance repository for this store.
func (s *Store) Utterances() *UtteranceRepository {
	return &UtteranceRepository{db: s.db}
}

const utteranceColumns = `id, COALESCE(session_id, ''), raw, sentence, category, subject, core_word, predicate, question, enhanced, created_at`

// Create inserts u, assigning an ID and timestamp when missing.
func (r *UtteranceRepository) Create(u *Utterance) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	var session any
	if u.SessionID != "" {
		session = u.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO utterances (id, session_id, raw, sentence, category, subject, core_word, predicate, question, enhanced, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, session, u.Raw, u.Sentence, u.Category, u.Subject, u.CoreWord, u.Predicate, u.Question, u.Enhanced, u.CreatedAt,
	)
	return err
}

// GetByID retrieves an utterance.
func (r *UtteranceRepository) GetByID(id string) (*Utterance, error) {
	u, err := scanUtterance(r.db.QueryRow(`SELECT `+utteranceColumns+` FROM utterances WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns up to limit utterances, newest first.
func (r *UtteranceRepository) List(limit int) ([]*Utterance, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(`SELECT `+utteranceColumns+` FROM utterances ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// ListBySession returns a session's utterances in the order they were spoken.
func (r *UtteranceRepository) ListBySession(sessionID string) ([]*Utterance, error) {
	return r.query(`SELECT `+utteranceColumns+` FROM utterances WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
}

// Count returns the number of stored utterances.
func (r *UtteranceRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM utterances`).Scan(&n)
	return n, err
}

func (r *UtteranceRepository) query(q string, args ...any) ([]*Utterance, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Utterance
	for rows.Next() {
		u, err := scanUtterance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUtterance(s scanner) (*Utterance, error) {
	u := &Utterance{}
	var question, enhanced int
	err := s.Scan(&u.ID, &u.SessionID, &u.Raw, &u.Sentence, &u.Category, &u.Subject,
		&u.CoreWord, &u.Predicate, &question, &enhanced, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Question = question != 0
	u.Enhanced = enhanced != 0
	return u, nil
}
