package funnel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultAdvanceDelay lets a selection register visibly before moving on.
const DefaultAdvanceDelay = 600 * time.Millisecond

var (
	ErrFirstStep          = errors.New("funnel: already at the first step")
	ErrLastStep           = errors.New("funnel: already at the last step")
	ErrNotChoiceStep      = errors.New("funnel: current step does not take a choice")
	ErrNotFilterStep      = errors.New("funnel: current step is not the filter step")
	ErrNotContactStep     = errors.New("funnel: contact details belong on the last step")
	ErrUnknownChoice      = errors.New("funnel: unknown choice")
	ErrCustomSizeRequired = errors.New("funnel: enter a filter size")
	ErrSubmitting         = errors.New("funnel: submission in progress")
	ErrCompleted          = errors.New("funnel: already completed")
	ErrClosed             = errors.New("funnel: closed")
)

type Option func(*Machine)

func WithAdvanceDelay(d time.Duration) Option {
	return func(m *Machine) { m.delay = d }
}

func WithEvents(sink EventSink) Option {
	return func(m *Machine) {
		if sink != nil {
			m.events = sink
		}
	}
}

func WithSteps(steps []Step) Option {
	return func(m *Machine) {
		if len(steps) > 0 {
			m.steps = steps
		}
	}
}

// WithOnChange registers a callback for transitions made by the auto-advance
// timer, so a UI can redraw. It runs outside the Machine's lock.
func WithOnChange(fn func(State)) Option {
	return func(m *Machine) { m.onChange = fn }
}

// State is a snapshot of the funnel for rendering.
type State struct {
	Index            int
	Total            int
	Step             Step
	Answers          map[string]string
	CustomFilterSize string
	Completed        bool
	Submitting       bool
	LeadID           string
	FieldErrors      map[string]string
	SubmitError      string
	CanBack          bool
	CanNext          bool
}

// Progress is the completion percentage shown in the progress bar.
func (s State) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Index+1) / float64(s.Total) * 100
}

// Machine is one visitor's pass through the funnel. It owns a single
// auto-advance timer that every transition and Close cancel.
type Machine struct {
	mu sync.Mutex

	steps        []Step
	index        int
	answers      map[string]string
	customFilter string

	timer *time.Timer
	gen   uint64
	delay time.Duration

	completed   bool
	submitting  bool
	closed      bool
	leadID      string
	fieldErrors map[string]string
	submitError string
	entered     time.Time

	submitter Submitter
	events    EventSink
	onChange  func(State)
	now       func() time.Time
}

func NewMachine(submitter Submitter, opts ...Option) *Machine {
	m := &Machine{
		steps:     DefaultSteps(),
		answers:   map[string]string{},
		delay:     DefaultAdvanceDelay,
		submitter: submitter,
		events:    nopSink{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.entered = m.now()
	m.events.Track(EventStarted, map[string]any{"total_steps": len(m.steps)})
	m.trackViewed()
	return m
}

// Select records an answer on a single-choice or filter step and schedules the
// auto-advance. Choosing the "other" filter size waits for ConfirmOther.
func (m *Machine) Select(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	step := m.steps[m.index]
	switch step.Type {
	case StepSingle, StepFilter:
	default:
		return ErrNotChoiceStep
	}
	if !hasChoice(step.Choices, value) {
		return ErrUnknownChoice
	}

	m.answers[step.Key()] = value
	m.stopTimer()

	if step.Type == StepFilter && value == FilterOther {
		return nil
	}
	if m.index == len(m.steps)-1 {
		return nil
	}

	gen := m.gen
	m.timer = time.AfterFunc(m.delay, func() { m.autoAdvance(gen) })
	return nil
}

// SetCustomFilterSize stores the free-text size for the "other" choice.
func (m *Machine) SetCustomFilterSize(size string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	if m.steps[m.index].Type != StepFilter {
		return ErrNotFilterStep
	}
	m.customFilter = strings.TrimSpace(size)
	return nil
}

// ConfirmOther advances past the filter step once a custom size is entered.
func (m *Machine) ConfirmOther() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	step := m.steps[m.index]
	if step.Type != StepFilter {
		return ErrNotFilterStep
	}
	if m.answers[step.Key()] != FilterOther || m.customFilter == "" {
		return ErrCustomSizeRequired
	}
	m.stopTimer()
	m.move(1)
	return nil
}

func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.stopTimer()
	if m.index >= len(m.steps)-1 {
		return ErrLastStep
	}
	m.move(1)
	return nil
}

func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.stopTimer()
	if m.index == 0 {
		return ErrFirstStep
	}
	m.move(-1)
	return nil
}

// Submit validates the contact details and sends the lead. On success the
// funnel completes; on failure it stays on the contact step with field errors.
// A *ContactError is returned for validation and server rejections.
func (m *Machine) Submit(ctx context.Context, c Contact) error {
	m.mu.Lock()
	if err := m.checkOpen(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.steps[m.index].Type != StepContact {
		m.mu.Unlock()
		return ErrNotContactStep
	}
	if m.submitting {
		m.mu.Unlock()
		return ErrSubmitting
	}
	m.stopTimer()
	m.fieldErrors = nil
	m.submitError = ""

	if errs := ValidateContact(c); len(errs) > 0 {
		m.fieldErrors = errs
		m.mu.Unlock()
		return &ContactError{Fields: copyAnswers(errs)}
	}

	payload := BuildPayload(m.answers, m.customFilter, c)
	m.submitting = true
	m.mu.Unlock()

	res, err := m.submitter.Submit(ctx, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitting = false

	if err != nil {
		m.submitError = MsgNetworkError
		m.events.Track(EventContactSubmitted, map[string]any{"success": false, "error_message": err.Error()})
		return err
	}

	if !res.Success {
		m.fieldErrors = FriendlyErrors(res.Errors)
		switch {
		case len(m.fieldErrors) > 0:
			m.submitError = MsgFixFields
		case res.Message != "":
			m.submitError = res.Message
		default:
			m.submitError = MsgTryAgain
		}
		m.events.Track(EventContactSubmitted, map[string]any{"success": false, "error_message": m.submitError})
		return &ContactError{Message: m.submitError, Fields: copyAnswers(m.fieldErrors)}
	}

	m.completed = true
	m.leadID = res.LeadID
	m.events.Track(EventContactSubmitted, map[string]any{"success": true})
	m.events.Track(EventLeadSubmitted, map[string]any{"lead_id": res.LeadID, "source": Source})
	return nil
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) Completed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

func (m *Machine) FieldErrors() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyAnswers(m.fieldErrors)
}

// Close cancels any pending auto-advance. Further calls return ErrClosed.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimer()
	m.closed = true
}

func (m *Machine) checkOpen() error {
	if m.closed {
		return ErrClosed
	}
	if m.completed {
		return ErrCompleted
	}
	return nil
}

// stopTimer cancels the pending advance. Bumping gen also disarms a callback
// that already fired and is waiting on the lock.
func (m *Machine) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Machine) autoAdvance(gen uint64) {
	m.mu.Lock()
	if m.closed || m.completed || gen != m.gen || m.index >= len(m.steps)-1 {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.gen++
	m.move(1)
	state := m.stateLocked()
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
}

func (m *Machine) move(delta int) {
	step := m.steps[m.index]
	props := map[string]any{
		"step_index":           m.index,
		"step_name":            step.Name,
		"time_on_step_seconds": m.now().Sub(m.entered).Seconds(),
	}
	if answer, ok := m.answers[step.Key()]; ok {
		props["answer"] = answer
	}
	m.events.Track(EventStepCompleted, props)

	m.index += delta
	m.entered = m.now()
	m.trackViewed()
}

func (m *Machine) trackViewed() {
	step := m.steps[m.index]
	m.events.Track(EventStepViewed, map[string]any{
		"step_index":    m.index,
		"step_name":     step.Name,
		"step_id":       step.ID,
		"step_type":     string(step.Type),
		"question_text": step.Question,
		"total_steps":   len(m.steps),
	})
}

func (m *Machine) stateLocked() State {
	return State{
		Index:            m.index,
		Total:            len(m.steps),
		Step:             m.steps[m.index],
		Answers:          copyAnswers(m.answers),
		CustomFilterSize: m.customFilter,
		Completed:        m.completed,
		Submitting:       m.submitting,
		LeadID:           m.leadID,
		FieldErrors:      copyAnswers(m.fieldErrors),
		SubmitError:      m.submitError,
		CanBack:          m.index > 0,
		CanNext:          m.index < len(m.steps)-1,
	}
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
