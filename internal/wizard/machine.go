// Package wizard drives one task instance through its steps.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

var (
	// ErrStepInvalid is returned by Next when required fields are missing.
	// The per-field messages are available from FieldErrors.
	ErrStepInvalid = errors.New("step has missing required fields")
	// ErrSubmitted is returned when navigating a wizard that was already submitted.
	ErrSubmitted = errors.New("wizard already submitted")
)

// Machine holds the progress of a single task instance. It is not safe for
// concurrent use; callers serialize access per key.
type Machine struct {
	task      models.TaskDefinition
	store     SessionStore
	submitter Submitter
	key       string
	now       func() time.Time
	logger    *log.Logger

	index     int
	answers   models.Answers
	errors    map[string]string
	submitErr error
	submitted bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithKey sets the persistence key. The default is the task id, which gives
// one session per task per client.
func WithKey(key string) Option {
	return func(m *Machine) { m.key = key }
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLogger sets the logger used for recoverable restore problems.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New creates a machine at step 0 with no answers. Call Restore to resume a
// persisted session.
func New(task models.TaskDefinition, store SessionStore, submitter Submitter, opts ...Option) *Machine {
	m := &Machine{
		task:      task,
		store:     store,
		submitter: submitter,
		key:       task.ID,
		now:       time.Now,
		logger:    log.New(io.Discard, "", 0),
		answers:   models.Answers{},
		errors:    map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore replaces the in-memory state with the persisted session, if any.
// A missing or unreadable session leaves the fresh state in place; only
// context cancellation is returned as an error. The boolean reports whether
// a session was loaded.
func (m *Machine) Restore(ctx context.Context) (bool, error) {
	s, err := m.store.LoadSession(ctx, m.key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if !errors.Is(err, ErrNotFound) {
			m.logger.Printf("wizard: discarding session %s: %v", m.key, err)
		}
		return false, nil
	}
	if s == nil || s.TaskID != m.task.ID {
		if s != nil {
			m.logger.Printf("wizard: session %s belongs to task %s, starting over", m.key, s.TaskID)
		}
		return false, nil
	}

	m.index = clamp(s.CurrentStepIndex, len(m.task.Steps))
	m.answers = s.Answers.Clone()
	m.errors = map[string]string{}
	m.submitErr = nil
	return true, nil
}

// SetAnswer records a value, clears that field's error and persists.
func (m *Machine) SetAnswer(ctx context.Context, name string, value any) error {
	if m.submitted {
		return ErrSubmitted
	}
	m.answers[name] = value
	delete(m.errors, name)
	return m.persist(ctx)
}

// Next validates the current step and advances, or submits from the review step.
func (m *Machine) Next(ctx context.Context) error {
	if m.submitted {
		return ErrSubmitted
	}
	if m.IsReview() {
		return m.submit(ctx)
	}

	errs := Validate(m.task.FieldsFor(m.Step().ID), m.answers)
	if len(errs) > 0 {
		m.errors = errs
		return ErrStepInvalid
	}

	m.errors = map[string]string{}
	if m.index < len(m.task.Steps)-1 {
		m.index++
	}
	return m.persist(ctx)
}

// Back moves to the previous step without validating. It is a no-op at step 0
// apart from persisting.
func (m *Machine) Back(ctx context.Context) error {
	if m.submitted {
		return ErrSubmitted
	}
	if m.index > 0 {
		m.index--
	}
	m.errors = map[string]string{}
	m.submitErr = nil
	return m.persist(ctx)
}

// Save persists the current step and answers.
func (m *Machine) Save(ctx context.Context) error {
	if m.submitted {
		return ErrSubmitted
	}
	return m.persist(ctx)
}

func (m *Machine) submit(ctx context.Context) error {
	answers := m.answers.Clone()
	if err := m.submitter.Submit(ctx, m.task.ID, answers); err != nil {
		m.submitErr = err
		return fmt.Errorf("submit %s: %w", m.task.ID, err)
	}
	m.submitErr = nil

	completed := &models.CompletedSubmission{
		TaskID:      m.task.ID,
		Answers:     answers,
		SubmittedAt: m.now().UTC(),
	}
	if err := m.store.SaveCompleted(ctx, m.key, completed); err != nil {
		return fmt.Errorf("save completed: %w", err)
	}
	if err := m.store.DeleteSession(ctx, m.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	m.submitted = true
	return nil
}

func (m *Machine) persist(ctx context.Context) error {
	s := &models.WizardSession{
		TaskID:           m.task.ID,
		CurrentStepIndex: m.index,
		Answers:          m.answers.Clone(),
		UpdatedAt:        m.now().UTC(),
	}
	if err := m.store.SaveSession(ctx, m.key, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Completed reads the completed-submission record for this machine's key.
func (m *Machine) Completed(ctx context.Context) (*models.CompletedSubmission, error) {
	return m.store.LoadCompleted(ctx, m.key)
}

func (m *Machine) Task() models.TaskDefinition { return m.task }
func (m *Machine) Key() string                 { return m.key }
func (m *Machine) StepIndex() int              { return m.index }
func (m *Machine) Submitted() bool             { return m.submitted }

// SubmitError is the error of the last failed submission, if any.
func (m *Machine) SubmitError() error { return m.submitErr }

// Step returns the current step.
func (m *Machine) Step() models.Step {
	return m.task.Steps[m.index]
}

// Fields returns the schemas of the current step.
func (m *Machine) Fields() []models.FieldSchema {
	return m.task.FieldsFor(m.Step().ID)
}

// IsReview reports whether the current step is the terminal review step.
func (m *Machine) IsReview() bool {
	return m.Step().IsReview()
}

// Answers returns a copy of the accumulated answers.
func (m *Machine) Answers() models.Answers {
	return m.answers.Clone()
}

// FieldErrors returns a copy of the current validation errors.
func (m *Machine) FieldErrors() map[string]string {
	out := make(map[string]string, len(m.errors))
	for k, v := range m.errors {
		out[k] = v
	}
	return out
}

// Progress is the percentage of steps reached, counting the current one.
func (m *Machine) Progress() float64 {
	return float64(m.index+1) * 100 / float64(len(m.task.Steps))
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
