// Package selection implements the multi-step word picker driven by gaze commands.
package selection

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/blinktalk/internal/vocab"
)

// PageSize is the number of word options visible at once.
const PageSize = 4

// NextPageID is the pseudo-option that advances to the next page.
const NextPageID = vocab.NextPageID

// NextPageLabel is the label shown for NextPageID.
const NextPageLabel = "다시"

// Flow selects the step sequence.
type Flow int

const (
	// FlowCoreWord walks category, core word, predicate.
	FlowCoreWord Flow = iota
	// FlowSubject walks category, subject, core word, predicate.
	FlowSubject
	// FlowSubjectPredicate walks category, subject, predicate. Predicates are
	// keyed by category alone.
	FlowSubjectPredicate
)

func (f Flow) String() string {
	switch f {
	case FlowSubject:
		return "subject"
	case FlowSubjectPredicate:
		return "subject-predicate"
	}
	return "coreword"
}

func (f Flow) hasSubject() bool {
	return f == FlowSubject || f == FlowSubjectPredicate
}

// ParseFlow parses "coreword", "subject" or "subject-predicate".
func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "coreword", "core-word", "core_word":
		return FlowCoreWord, nil
	case "subject":
		return FlowSubject, nil
	case "subject-predicate", "subjectpredicate", "subject_predicate":
		return FlowSubjectPredicate, nil
	}
	return FlowCoreWord, fmt.Errorf("unknown flow %q", s)
}

// Step is one stage of the picker.
type Step int

const (
	StepCategory Step = iota
	StepSubject
	StepCoreWord
	StepPredicate
)

func (s Step) String() string {
	switch s {
	case StepSubject:
		return "subject"
	case StepCoreWord:
		return "coreWord"
	case StepPredicate:
		return "predicate"
	default:
		return "category"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Step) UnmarshalText(b []byte) error {
	switch string(b) {
	case "category":
		*s = StepCategory
	case "subject":
		*s = StepSubject
	case "coreWord":
		*s = StepCoreWord
	case "predicate":
		*s = StepPredicate
	default:
		return fmt.Errorf("unknown step %q", string(b))
	}
	return nil
}

// Title is the heading shown for a step.
func (s Step) Title() string {
	switch s {
	case StepSubject:
		return "주어 선택"
	case StepCoreWord:
		return "핵심 단어 선택"
	case StepPredicate:
		return "서술어 선택"
	default:
		return "상황 선택"
	}
}

// Choices are the committed option IDs per step. Empty means not chosen.
type Choices struct {
	Category  string `json:"category,omitempty"`
	Subject   string `json:"subject,omitempty"`
	CoreWord  string `json:"coreWord,omitempty"`
	Predicate string `json:"predicate,omitempty"`
}

// Question reports whether the chosen subject turns the sentence into a question.
func (c Choices) Question() bool {
	return c.Subject == vocab.QuestionSubject
}

// State is the whole picker state. It is a plain value; Transition returns a new one.
type State struct {
	Flow      Flow
	Step      Step
	Choices   Choices
	Page      int
	Highlight int

	// NavGuard is the minimum interval between accepted navigation events.
	NavGuard   time.Duration
	GuardUntil time.Time

	Generating bool
	// Generation identifies the current sentence. Results tagged with an older
	// generation are discarded.
	Generation uint64
	Raw        string
	Final      string
	Enhanced   bool
	ModalOpen  bool
}

// NewState returns the initial state for a flow.
func NewState(flow Flow, navGuard time.Duration) State {
	return State{Flow: flow, Step: StepCategory, NavGuard: navGuard}
}

func (s State) next(step Step) Step {
	switch step {
	case StepCategory:
		if s.Flow.hasSubject() {
			return StepSubject
		}
		return StepCoreWord
	case StepSubject:
		if s.Flow == FlowSubjectPredicate {
			return StepPredicate
		}
		return StepCoreWord
	default:
		return StepPredicate
	}
}

func (s State) prev(step Step) Step {
	switch step {
	case StepPredicate:
		if s.Flow == FlowSubjectPredicate {
			return StepSubject
		}
		return StepCoreWord
	case StepCoreWord:
		if s.Flow == FlowSubject {
			return StepSubject
		}
		return StepCategory
	default:
		return StepCategory
	}
}

// AllOptions returns every option of the current step.
func AllOptions(s State, v *vocab.Vocabulary) []vocab.WordOption {
	switch s.Step {
	case StepCategory:
		if len(v.Categories) > vocab.MaxCategories {
			return v.Categories[:vocab.MaxCategories]
		}
		return v.Categories
	case StepSubject:
		return v.Subjects
	case StepCoreWord:
		return v.CoreWordsFor(s.Choices.Category)
	case StepPredicate:
		if s.Flow == FlowSubjectPredicate {
			return v.SubjectPredicatesFor(s.Choices.Category)
		}
		return v.PredicatesFor(s.Choices.Category, s.Choices.CoreWord)
	}
	return nil
}

// CheckVocabulary validates v and makes sure it carries the tables flow walks.
func CheckVocabulary(flow Flow, v *vocab.Vocabulary) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if flow.hasSubject() && len(v.Subjects) == 0 {
		return fmt.Errorf("vocab: %s flow needs subjects", flow)
	}
	if flow == FlowSubjectPredicate {
		for _, c := range v.Categories {
			if len(v.SubjectPredicatesFor(c.ID)) == 0 {
				return fmt.Errorf("vocab: %s flow needs subject predicates for category %q", flow, c.ID)
			}
		}
	}
	return nil
}

// paged reports whether the current step shows the next-page pseudo-option.
func paged(s State, all []vocab.WordOption) bool {
	return s.Step != StepCategory && len(all) > PageSize
}

// Visible returns the options shown on the current page, including the
// next-page pseudo-option when the step has more than one page.
func Visible(s State, v *vocab.Vocabulary) []vocab.WordOption {
	all := AllOptions(s, v)
	if !paged(s, all) {
		return all
	}

	start := s.Page * PageSize
	if start >= len(all) {
		start = 0
	}
	end := start + PageSize
	if end > len(all) {
		end = len(all)
	}

	out := make([]vocab.WordOption, 0, end-start+1)
	out = append(out, all[start:end]...)
	return append(out, vocab.WordOption{ID: NextPageID, Label: NextPageLabel})
}

// Pages returns the number of pages for the current step.
func Pages(s State, v *vocab.Vocabulary) int {
	all := AllOptions(s, v)
	if !paged(s, all) {
		return 1
	}
	return (len(all) + PageSize - 1) / PageSize
}

// BuildSentence assembles the raw sentence from committed choices. It is pure.
// With only a category chosen it returns "". In the subject flows the question
// subject contributes no word.
func BuildSentence(flow Flow, c Choices, v *vocab.Vocabulary) string {
	if c.Category == "" {
		return ""
	}

	var parts []string
	if flow.hasSubject() && c.Subject != "" && c.Subject != vocab.QuestionSubject {
		if w, ok := v.Subject(c.Subject); ok {
			parts = append(parts, w.Label)
		}
	}

	if flow == FlowSubjectPredicate {
		if p, ok := v.SubjectPredicate(c.Category, c.Predicate); ok {
			parts = append(parts, p.Label)
		}
		return strings.Join(parts, " ")
	}

	core, ok := v.CoreWord(c.Category, c.CoreWord)
	if !ok {
		return strings.Join(parts, " ")
	}
	parts = append(parts, core.Label)

	if p, ok := v.Predicate(c.Category, c.CoreWord, c.Predicate); ok {
		parts = append(parts, p.Label)
	}
	return strings.Join(parts, " ")
}
