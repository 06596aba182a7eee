// Package vocab holds the word tables the picker walks through.
package vocab

import (
	"errors"
	"fmt"
)

// QuestionSubject is the subject ID that marks a sentence as a question
// and contributes no word of its own.
const QuestionSubject = "question"

// NextPageID is reserved for the picker's next-page pseudo-option and may not
// be used as a word ID.
const NextPageID = "next_page"

// MaxCategories is the most categories a vocabulary may have. The category
// step shows them all on one unpaged screen.
const MaxCategories = 4

// WordOption is one selectable word.
type WordOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Vocabulary is the full set of word tables.
type Vocabulary struct {
	Categories []WordOption `json:"categories"`
	Subjects   []WordOption `json:"subjects"`
	// CoreWords is keyed by category ID.
	CoreWords map[string][]WordOption `json:"coreWords"`
	// Predicates is keyed by PredicateKey(category, coreWord).
	Predicates map[string][]WordOption `json:"predicates"`
	// SubjectPredicates is keyed by category ID. They complete a sentence
	// straight after the subject, as in "나 배고파".
	SubjectPredicates map[string][]WordOption `json:"subjectPredicates,omitempty"`
}

// PredicateKey returns the Predicates map key for a category and core word.
func PredicateKey(category, coreWord string) string {
	return category + "_" + coreWord
}

// CoreWordsFor returns the core words of a category.
func (v *Vocabulary) CoreWordsFor(category string) []WordOption {
	return v.CoreWords[category]
}

// PredicatesFor returns the predicates for a category and core word.
func (v *Vocabulary) PredicatesFor(category, coreWord string) []WordOption {
	return v.Predicates[PredicateKey(category, coreWord)]
}

// SubjectPredicatesFor returns the predicates that follow a subject in a category.
func (v *Vocabulary) SubjectPredicatesFor(category string) []WordOption {
	return v.SubjectPredicates[category]
}

// SubjectPredicate returns a category's subject predicate with the given ID.
func (v *Vocabulary) SubjectPredicate(category, id string) (WordOption, bool) {
	return find(v.SubjectPredicates[category], id)
}

// Category returns the category with the given ID.
func (v *Vocabulary) Category(id string) (WordOption, bool) {
	return find(v.Categories, id)
}

// Subject returns the subject with the given ID.
func (v *Vocabulary) Subject(id string) (WordOption, bool) {
	return find(v.Subjects, id)
}

// CoreWord returns a category's core word with the given ID.
func (v *Vocabulary) CoreWord(category, id string) (WordOption, bool) {
	return find(v.CoreWords[category], id)
}

// Predicate returns the predicate with the given ID.
func (v *Vocabulary) Predicate(category, coreWord, id string) (WordOption, bool) {
	return find(v.PredicatesFor(category, coreWord), id)
}

func find(opts []WordOption, id string) (WordOption, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return WordOption{}, false
}

// Validate checks that every table is non-empty, IDs are unique within a table
// and not reserved, and every category/core word pair has predicates. Subject
// predicates are optional, but when present every category needs some.
func (v *Vocabulary) Validate() error {
	if len(v.Categories) == 0 {
		return errors.New("vocab: no categories")
	}
	if len(v.Categories) > MaxCategories {
		return fmt.Errorf("vocab: %d categories, at most %d fit the category step", len(v.Categories), MaxCategories)
	}
	if err := unique("categories", v.Categories); err != nil {
		return err
	}
	if err := unique("subjects", v.Subjects); err != nil {
		return err
	}
	for _, c := range v.Categories {
		words := v.CoreWords[c.ID]
		if len(words) == 0 {
			return fmt.Errorf("vocab: category %q has no core words", c.ID)
		}
		if err := unique("core words of "+c.ID, words); err != nil {
			return err
		}
		for _, w := range words {
			preds := v.PredicatesFor(c.ID, w.ID)
			if len(preds) == 0 {
				return fmt.Errorf("vocab: %q has no predicates", PredicateKey(c.ID, w.ID))
			}
			if err := unique("predicates of "+PredicateKey(c.ID, w.ID), preds); err != nil {
				return err
			}
		}
	}
	if len(v.SubjectPredicates) == 0 {
		return nil
	}
	for _, c := range v.Categories {
		preds := v.SubjectPredicates[c.ID]
		if len(preds) == 0 {
			return fmt.Errorf("vocab: category %q has no subject predicates", c.ID)
		}
		if err := unique("subject predicates of "+c.ID, preds); err != nil {
			return err
		}
	}
	return nil
}

func unique(table string, opts []WordOption) error {
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		if o.ID == "" {
			return fmt.Errorf("vocab: empty id in %s", table)
		}
		if o.ID == NextPageID {
			return fmt.Errorf("vocab: reserved id %q in %s", o.ID, table)
		}
		if seen[o.ID] {
			return fmt.Errorf("vocab: duplicate id %q in %s", o.ID, table)
		}
		seen[o.ID] = true
	}
	return nil
}

// Clone returns a deep copy.
func (v *Vocabulary) Clone() *Vocabulary {
	out := &Vocabulary{
		Categories: append([]WordOption(nil), v.Categories...),
		Subjects:   append([]WordOption(nil), v.Subjects...),
		CoreWords:  make(map[string][]WordOption, len(v.CoreWords)),
		Predicates: make(map[string][]WordOption, len(v.Predicates)),
	}
	for k, opts := range v.CoreWords {
		out.CoreWords[k] = append([]WordOption(nil), opts...)
	}
	for k, opts := range v.Predicates {
		out.Predicates[k] = append([]WordOption(nil), opts...)
	}
	if v.SubjectPredicates != nil {
		out.SubjectPredicates = make(map[string][]WordOption, len(v.SubjectPredicates))
		for k, opts := range v.SubjectPredicates {
			out.SubjectPredicates[k] = append([]WordOption(nil), opts...)
		}
	}
	return out
}
