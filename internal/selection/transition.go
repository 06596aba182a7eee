package selection

import (
	"time"

	"github.com/ayusman/blinktalk/internal/dispatch"
	"github.com/ayusman/blinktalk/internal/vocab"
)

// EventKind enumerates picker inputs.
type EventKind int

const (
	EventNavigate EventKind = iota
	EventConfirm
	EventBack
	EventReset
	// EventSelect commits OptionID directly, bypassing the highlight and the guard.
	EventSelect
	// EventEnhanced delivers the sentence for Generation.
	EventEnhanced
	// EventAutoReset closes the completion modal for Generation.
	EventAutoReset
)

// Event is one picker input.
type Event struct {
	Kind       EventKind
	Direction  dispatch.Direction
	OptionID   string
	Sentence   string
	Enhanced   bool
	Generation uint64
	At         time.Time
}

// EffectKind enumerates side effects requested by Transition.
type EffectKind int

const (
	// EffectEnhance asks for Utterance.Raw to be enhanced and reported back as EventEnhanced.
	EffectEnhance EffectKind = iota
	// EffectSpeak speaks Utterance.Sentence.
	EffectSpeak
	// EffectCancelSpeech stops any speech in progress.
	EffectCancelSpeech
	// EffectComplete reports a finished Utterance.
	EffectComplete
)

func (k EffectKind) String() string {
	switch k {
	case EffectEnhance:
		return "enhance"
	case EffectSpeak:
		return "speak"
	case EffectCancelSpeech:
		return "cancel-speech"
	default:
		return "complete"
	}
}

// Utterance is an assembled sentence and the choices it came from.
type Utterance struct {
	Sentence   string `json:"sentence"`
	Raw        string `json:"raw"`
	Category   string `json:"category"`
	Subject    string `json:"subject,omitempty"`
	CoreWord   string `json:"coreWord"`
	Predicate  string `json:"predicate"`
	Question   bool   `json:"question"`
	Enhanced   bool   `json:"enhanced"`
	Generation uint64 `json:"-"`
}

// Effect is a side effect for the caller to perform.
type Effect struct {
	Kind      EffectKind
	Utterance Utterance
}

// Transition applies ev to s. It never mutates s and performs no I/O.
func Transition(s State, ev Event, v *vocab.Vocabulary) (State, []Effect) {
	switch ev.Kind {
	case EventNavigate:
		return navigate(s, ev, v), nil
	case EventConfirm:
		if s.Generating {
			return s, nil
		}
		if s.ModalOpen {
			return reset(s)
		}
		opts := Visible(s, v)
		if len(opts) == 0 {
			return s, nil
		}
		if s.Highlight < 0 || s.Highlight >= len(opts) {
			s.Highlight = 0
		}
		return commit(s, opts[s.Highlight].ID, v)
	case EventSelect:
		if s.Generating || s.ModalOpen || !Valid(s, v, ev.OptionID) {
			return s, nil
		}
		return commit(s, ev.OptionID, v)
	case EventBack:
		return back(s)
	case EventReset:
		return reset(s)
	case EventEnhanced:
		return enhanced(s, ev)
	case EventAutoReset:
		if !s.ModalOpen || ev.Generation != s.Generation {
			return s, nil
		}
		return reset(s)
	}
	return s, nil
}

// Valid reports whether id can be committed at the current step.
func Valid(s State, v *vocab.Vocabulary, id string) bool {
	if id == NextPageID {
		return paged(s, AllOptions(s, v))
	}
	for _, o := range AllOptions(s, v) {
		if o.ID == id {
			return true
		}
	}
	return false
}

func navigate(s State, ev Event, v *vocab.Vocabulary) State {
	if s.Generating || s.ModalOpen {
		return s
	}
	if !s.GuardUntil.IsZero() && ev.At.Before(s.GuardUntil) {
		return s
	}
	n := len(Visible(s, v))
	if n == 0 {
		return s
	}

	switch ev.Direction {
	case dispatch.Right:
		s.Highlight = (s.Highlight + 1) % n
	default:
		if s.Highlight <= 0 {
			s.Highlight = n - 1
		} else {
			s.Highlight--
		}
	}
	s.GuardUntil = ev.At.Add(s.NavGuard)
	return s
}

func commit(s State, id string, v *vocab.Vocabulary) (State, []Effect) {
	if id == NextPageID {
		all := AllOptions(s, v)
		if (s.Page+1)*PageSize >= len(all) {
			s.Page = 0
		} else {
			s.Page++
		}
		// Keep the highlight on the next-page option so repeated confirms keep paging.
		s.Highlight = len(Visible(s, v)) - 1
		return s, nil
	}

	step := s.Step
	switch step {
	case StepCategory:
		s.Choices.Category = id
	case StepSubject:
		s.Choices.Subject = id
	case StepCoreWord:
		s.Choices.CoreWord = id
	case StepPredicate:
		s.Choices.Predicate = id
		s.Raw = BuildSentence(s.Flow, s.Choices, v)
		s.Final = ""
		s.Enhanced = false
		s.Generating = true
		s.Generation++
		return s, []Effect{{Kind: EffectEnhance, Utterance: s.utterance()}}
	}

	s.Step = s.next(step)
	s.Page = 0
	s.Highlight = 0
	return s, nil
}

func enhanced(s State, ev Event) (State, []Effect) {
	if !s.Generating || ev.Generation != s.Generation {
		return s, nil
	}
	s.Generating = false
	s.Final = ev.Sentence
	s.Enhanced = ev.Enhanced
	if s.Final == "" {
		s.Final = s.Raw
		s.Enhanced = false
	}
	s.ModalOpen = true

	u := s.utterance()
	return s, []Effect{
		{Kind: EffectSpeak, Utterance: u},
		{Kind: EffectComplete, Utterance: u},
	}
}

func back(s State) (State, []Effect) {
	cancel := []Effect{{Kind: EffectCancelSpeech}}

	switch {
	case s.ModalOpen:
		s.ModalOpen = false
		s.Step = StepPredicate
		s.Choices.Predicate = ""
		s.clearSentence()
	case s.Step == StepCategory:
		return reset(s)
	default:
		s.Step = s.prev(s.Step)
		s.clearFrom(s.Step)
		s.clearSentence()
	}
	s.Page = 0
	s.Highlight = 0
	return s, cancel
}

func reset(s State) (State, []Effect) {
	gen := s.Generation
	if s.Generating || s.ModalOpen {
		gen++
	}
	return State{
		Flow:       s.Flow,
		Step:       StepCategory,
		NavGuard:   s.NavGuard,
		GuardUntil: s.GuardUntil,
		Generation: gen,
	}, []Effect{{Kind: EffectCancelSpeech}}
}

// clearFrom drops the choice for step and every later step.
func (s *State) clearFrom(step Step) {
	switch step {
	case StepCategory:
		s.Choices = Choices{}
	case StepSubject:
		s.Choices.Subject = ""
		s.Choices.CoreWord = ""
		s.Choices.Predicate = ""
	case StepCoreWord:
		s.Choices.CoreWord = ""
		s.Choices.Predicate = ""
	case StepPredicate:
		s.Choices.Predicate = ""
	}
}

// clearSentence abandons any sentence in progress and invalidates pending results.
func (s *State) clearSentence() {
	if s.Generating || s.ModalOpen || s.Raw != "" {
		s.Generation++
	}
	s.Generating = false
	s.ModalOpen = false
	s.Raw = ""
	s.Final = ""
	s.Enhanced = false
}

func (s State) utterance() Utterance {
	sentence := s.Final
	if sentence == "" {
		sentence = s.Raw
	}
	return Utterance{
		Sentence:   sentence,
		Raw:        s.Raw,
		Category:   s.Choices.Category,
		Subject:    s.Choices.Subject,
		CoreWord:   s.Choices.CoreWord,
		Predicate:  s.Choices.Predicate,
		Question:   s.Choices.Question(),
		Enhanced:   s.Enhanced,
		Generation: s.Generation,
	}
}
