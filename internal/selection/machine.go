package selection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/blinktalk/internal/dispatch"
	"github.com/ayusman/blinktalk/internal/enhance"
	"github.com/ayusman/blinktalk/internal/log"
	"github.com/ayusman/blinktalk/internal/vocab"
)

var (
	// ErrUnknownOption is returned by Select for an ID not offered at the current step.
	ErrUnknownOption = errors.New("selection: unknown option")

	// ErrBusy is returned by Select while a sentence is being generated or shown.
	ErrBusy = errors.New("selection: sentence in progress")
)

// DefaultLanguage is the language tag used for speech.
const DefaultLanguage = "ko-KR"

// Speaker speaks finished sentences.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
	Stop()
}

// Config configures a Machine.
type Config struct {
	Flow Flow
	// NavGuard is the debounce between accepted navigation events.
	NavGuard time.Duration
	// EnhanceTimeout bounds the enhancement round trip.
	EnhanceTimeout time.Duration
	// AutoReset returns to the start this long after the completion modal opens. 0 disables it.
	AutoReset  time.Duration
	Language   string
	Politeness enhance.Politeness
}

// DefaultConfig returns the defaults for the core-word flow.
func DefaultConfig() Config {
	return Config{
		Flow:           FlowCoreWord,
		NavGuard:       300 * time.Millisecond,
		EnhanceTimeout: 5 * time.Second,
		Language:       DefaultLanguage,
		Politeness:     enhance.Casual,
	}
}

// Snapshot is a read-only view of the picker for the UI.
type Snapshot struct {
	Flow       string             `json:"flow"`
	Step       Step               `json:"step"`
	Title      string             `json:"title"`
	Options    []vocab.WordOption `json:"options"`
	Highlight  int                `json:"highlight"`
	Page       int                `json:"page"`
	Pages      int                `json:"pages"`
	Choices    Choices            `json:"choices"`
	Sentence   string             `json:"sentence"`
	Generating bool               `json:"generating"`
	ModalOpen  bool               `json:"modalOpen"`
	Final      string             `json:"final,omitempty"`
}

// Machine owns the picker state and performs the effects Transition requests.
// It implements dispatch.CommandSink.
type Machine struct {
	mu    sync.Mutex
	state State
	vocab *vocab.Vocabulary
	cfg   Config

	enhancer enhance.Provider
	speaker  Speaker
	logger   *slog.Logger
	now      func() time.Time

	onComplete func(Utterance)
	onChange   func(Snapshot)

	cancelEnhance context.CancelFunc
	resetTimer    *time.Timer
	wg            sync.WaitGroup
}

var _ dispatch.CommandSink = (*Machine)(nil)

// Option configures a Machine.
type Option func(*Machine)

// WithEnhancer sets the sentence enhancer. Without one the raw sentence is used.
func WithEnhancer(p enhance.Provider) Option {
	return func(m *Machine) { m.enhancer = p }
}

// WithSpeaker sets the speech output.
func WithSpeaker(s Speaker) Option {
	return func(m *Machine) { m.speaker = s }
}

// WithClock overrides the time source used for the navigation guard.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// NewMachine creates a machine over v.
func NewMachine(cfg Config, v *vocab.Vocabulary, opts ...Option) *Machine {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	m := &Machine{
		state:  NewState(cfg.Flow, cfg.NavGuard),
		vocab:  v,
		cfg:    cfg,
		logger: log.Component("selection"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnComplete registers a callback for finished utterances.
func (m *Machine) OnComplete(fn func(Utterance)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = fn
}

// OnChange registers a callback invoked with a snapshot after every state change.
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Navigate moves the highlight.
func (m *Machine) Navigate(dir dispatch.Direction) {
	m.apply(Event{Kind: EventNavigate, Direction: dir})
}

// Confirm commits the highlighted option, or returns to the start from the completion modal.
func (m *Machine) Confirm() {
	m.apply(Event{Kind: EventConfirm})
}

// Back steps back one level.
func (m *Machine) Back() {
	m.apply(Event{Kind: EventBack})
}

// Reset returns to the first step.
func (m *Machine) Reset() {
	m.apply(Event{Kind: EventReset})
}

// Select commits an option by ID, as a pointer click would.
func (m *Machine) Select(id string) error {
	m.mu.Lock()
	s := m.state
	v := m.vocab
	m.mu.Unlock()

	if s.Generating || s.ModalOpen {
		return ErrBusy
	}
	if !Valid(s, v, id) {
		return ErrUnknownOption
	}
	m.apply(Event{Kind: EventSelect, OptionID: id})
	return nil
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// State returns a copy of the raw state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetVocabulary swaps the word tables and resets the picker.
func (m *Machine) SetVocabulary(v *vocab.Vocabulary) {
	m.mu.Lock()
	m.vocab = v
	m.mu.Unlock()
	m.Reset()
}

// Wait blocks until in-flight enhancement and speech work has finished.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// Close cancels pending work and waits for it.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.cancelEnhance != nil {
		m.cancelEnhance()
		m.cancelEnhance = nil
	}
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := m.state
	sentence := s.Final
	if sentence == "" {
		sentence = BuildSentence(s.Flow, s.Choices, m.vocab)
	}
	return Snapshot{
		Flow:       s.Flow.String(),
		Step:       s.Step,
		Title:      s.Step.Title(),
		Options:    Visible(s, m.vocab),
		Highlight:  s.Highlight,
		Page:       s.Page,
		Pages:      Pages(s, m.vocab),
		Choices:    s.Choices,
		Sentence:   sentence,
		Generating: s.Generating,
		ModalOpen:  s.ModalOpen,
		Final:      s.Final,
	}
}

func (m *Machine) apply(ev Event) {
	if ev.At.IsZero() {
		ev.At = m.now()
	}

	m.mu.Lock()
	prev := m.state
	next, effects := Transition(prev, ev, m.vocab)
	m.state = next

	if next.Generation != prev.Generation {
		if m.cancelEnhance != nil {
			m.cancelEnhance()
			m.cancelEnhance = nil
		}
		if m.resetTimer != nil {
			m.resetTimer.Stop()
			m.resetTimer = nil
		}
	}

	// The request context is installed under the same lock as the transition,
	// so a later Back or Reset always finds it to cancel.
	var job *enhanceJob
	for _, eff := range effects {
		if eff.Kind == EffectEnhance && m.enhancer != nil {
			job = m.prepareEnhanceLocked(eff.Utterance)
		}
	}

	var snap *Snapshot
	if next != prev && m.onChange != nil {
		s := m.snapshotLocked()
		snap = &s
	}
	onChange := m.onChange
	onComplete := m.onComplete
	m.mu.Unlock()

	if snap != nil {
		onChange(*snap)
	}
	for _, eff := range effects {
		if eff.Kind == EffectEnhance && job != nil {
			m.runEnhance(job)
			continue
		}
		m.perform(eff, onComplete)
	}
}

func (m *Machine) perform(eff Effect, onComplete func(Utterance)) {
	switch eff.Kind {
	case EffectEnhance:
		// No enhancer: the raw sentence is final.
		m.apply(Event{Kind: EventEnhanced, Generation: eff.Utterance.Generation, Sentence: eff.Utterance.Raw})
	case EffectSpeak:
		m.speak(eff.Utterance.Sentence)
	case EffectCancelSpeech:
		if m.speaker != nil {
			m.speaker.Stop()
		}
	case EffectComplete:
		m.logger.Info("utterance complete", "sentence", eff.Utterance.Sentence, "enhanced", eff.Utterance.Enhanced)
		if onComplete != nil {
			onComplete(eff.Utterance)
		}
		m.scheduleReset(eff.Utterance.Generation)
	}
}

// enhanceJob is one outstanding enhancement request.
type enhanceJob struct {
	u      Utterance
	req    *enhance.Request
	ctx    context.Context
	cancel context.CancelFunc
}

func (m *Machine) prepareEnhanceLocked(u Utterance) *enhanceJob {
	timeout := m.cfg.EnhanceTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().EnhanceTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	if m.cancelEnhance != nil {
		m.cancelEnhance()
	}
	m.cancelEnhance = cancel
	m.wg.Add(1)
	return &enhanceJob{u: u, req: m.requestLocked(u), ctx: ctx, cancel: cancel}
}

func (m *Machine) runEnhance(job *enhanceJob) {
	go func() {
		defer m.wg.Done()
		defer job.cancel()

		u := job.u
		sentence, ok := u.Raw, false
		res, err := m.enhancer.Enhance(job.ctx, job.req)
		switch {
		case err != nil:
			m.logger.Warn("enhancement failed, using original sentence", "error", err)
		case res == nil || res.Sentence == "":
			m.logger.Warn("enhancement returned empty sentence, using original")
		default:
			sentence, ok = res.Sentence, res.Enhanced
		}
		m.apply(Event{Kind: EventEnhanced, Generation: u.Generation, Sentence: sentence, Enhanced: ok})
	}()
}

// requestLocked builds the enhancement request from the utterance's word labels.
func (m *Machine) requestLocked(u Utterance) *enhance.Request {
	req := &enhance.Request{
		Sentence:   u.Raw,
		Question:   u.Question,
		Politeness: m.cfg.Politeness,
	}
	if w, ok := m.vocab.Category(u.Category); ok {
		req.Category = w.Label
	}
	if w, ok := m.vocab.Subject(u.Subject); ok && !u.Question {
		req.Subject = w.Label
	}
	if m.state.Flow == FlowSubjectPredicate {
		if w, ok := m.vocab.SubjectPredicate(u.Category, u.Predicate); ok {
			req.Predicate = w.Label
		}
		return req
	}
	if w, ok := m.vocab.CoreWord(u.Category, u.CoreWord); ok {
		req.CoreWord = w.Label
	}
	if w, ok := m.vocab.Predicate(u.Category, u.CoreWord, u.Predicate); ok {
		req.Predicate = w.Label
	}
	return req
}

func (m *Machine) speak(text string) {
	if m.speaker == nil || text == "" {
		return
	}
	lang := m.cfg.Language
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.speaker.Speak(context.Background(), text, lang); err != nil {
			m.logger.Warn("speech failed", "error", err)
		}
	}()
}

func (m *Machine) scheduleReset(gen uint64) {
	if m.cfg.AutoReset <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetTimer != nil {
		m.resetTimer.Stop()
	}
	m.resetTimer = time.AfterFunc(m.cfg.AutoReset, func() {
		m.apply(Event{Kind: EventAutoReset, Generation: gen})
	})
}
