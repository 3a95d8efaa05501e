package wizard

import (
	"context"
	"errors"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

// ErrNotFound is returned by a SessionStore when nothing is stored under a key.
var ErrNotFound = errors.New("not found")

// SessionStore persists wizard progress keyed by task-instance key.
type SessionStore interface {
	LoadSession(ctx context.Context, key string) (*models.WizardSession, error)
	SaveSession(ctx context.Context, key string, s *models.WizardSession) error
	DeleteSession(ctx context.Context, key string) error
	SaveCompleted(ctx context.Context, key string, c *models.CompletedSubmission) error
	LoadCompleted(ctx context.Context, key string) (*models.CompletedSubmission, error)
}

// Submitter files the answers of a finished wizard.
type Submitter interface {
	Submit(ctx context.Context, taskID string, answers models.Answers) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, taskID string, answers models.Answers) error

func (f SubmitFunc) Submit(ctx context.Context, taskID string, answers models.Answers) error {
	return f(ctx, taskID, answers)
}

// LocalSubmitter accepts every submission immediately. Filing happens later,
// out of band, through the submission gateway or a printed document.
type LocalSubmitter struct{}

func (LocalSubmitter) Submit(ctx context.Context, taskID string, answers models.Answers) error {
	return ctx.Err()
}
