package store

import (
	"database/sql"
	"fmt"

	"github.com/ayusman/blinktalk/internal/vocab"
)

const (
	kindCategory  = "category"
	kindSubject   = "subject"
	kindCore      = "core"
	kindPredicate = "predicate"

	kindSubjectPredicate = "subject_predicate"
)

// VocabularyRepository persists the word tables.
type VocabularyRepository struct {
	db *sql.DB
}

// Vocabulary returns the vocabulary repository for this store.
func (s *Store) Vocabulary() *VocabularyRepository {
	return &VocabularyRepository{db: s.db}
}

// Load reads the stored vocabulary. It returns ErrNotFound when nothing is stored.
func (r *VocabularyRepository) Load() (*vocab.Vocabulary, error) {
	rows, err := r.db.Query(`SELECT kind, parent, id, label FROM vocabulary ORDER BY kind, parent, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	v := &vocab.Vocabulary{
		CoreWords:  make(map[string][]vocab.WordOption),
		Predicates: make(map[string][]vocab.WordOption),
	}
	n := 0
	for rows.Next() {
		var kind, parent string
		var w vocab.WordOption
		if err := rows.Scan(&kind, &parent, &w.ID, &w.Label); err != nil {
			return nil, err
		}
		n++
		switch kind {
		case kindCategory:
			v.Categories = append(v.Categories, w)
		case kindSubject:
			v.Subjects = append(v.Subjects, w)
		case kindCore:
			v.CoreWords[parent] = append(v.CoreWords[parent], w)
		case kindPredicate:
			v.Predicates[parent] = append(v.Predicates[parent], w)
		case kindSubjectPredicate:
			if v.SubjectPredicates == nil {
				v.SubjectPredicates = make(map[string][]vocab.WordOption)
			}
			v.SubjectPredicates[parent] = append(v.SubjectPredicates[parent], w)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return v, nil
}

// Replace validates v and swaps it in atomically.
func (r *VocabularyRepository) Replace(v *vocab.Vocabulary) error {
	if err := v.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM vocabulary`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO vocabulary (kind, parent, id, label, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	insert := func(kind, parent string, words []vocab.WordOption) error {
		for i, w := range words {
			if _, err := stmt.Exec(kind, parent, w.ID, w.Label, i); err != nil {
				return fmt.Errorf("insert %s %q: %w", kind, w.ID, err)
			}
		}
		return nil
	}

	if err := insert(kindCategory, "", v.Categories); err != nil {
		return err
	}
	if err := insert(kindSubject, "", v.Subjects); err != nil {
		return err
	}
	for cat, words := range v.CoreWords {
		if err := insert(kindCore, cat, words); err != nil {
			return err
		}
	}
	for key, words := range v.Predicates {
		if err := insert(kindPredicate, key, words); err != nil {
			return err
		}
	}
	for cat, words := range v.SubjectPredicates {
		if err := insert(kindSubjectPredicate, cat, words); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Seed stores v only if no vocabulary exists yet. It reports whether it wrote.
func (r *VocabularyRepository) Seed(v *vocab.Vocabulary) (bool, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM vocabulary`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := r.Replace(v); err != nil {
		return false, err
	}
	return true, nil
}
