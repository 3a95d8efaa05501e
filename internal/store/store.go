// Package store provides persistence for wizard sessions.
//
// Store keeps server-side snapshots in SQLite. FileStore keeps client-local
// JSON files. Both implement wizard.SessionStore. Neither records anything
// about submissions sent to the agency.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/wizard"
)

// Store is the SQLite-backed session store.
type Store struct {
	db *sqlx.DB
}

// New opens the database at dbPath and runs migrations. Use ":memory:" for
// a throwaway database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; this also keeps a :memory: database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wizard_sessions (
		key TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		step_index INTEGER NOT NULL DEFAULT 0,
		answers TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS completed_wizards (
		key TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		answers TEXT NOT NULL,
		submitted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wizard_sessions_task ON wizard_sessions(task_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

type sessionRow struct {
	Key       string    `db:"key"`
	TaskID    string    `db:"task_id"`
	StepIndex int       `db:"step_index"`
	Answers   string    `db:"answers"`
	UpdatedAt time.Time `db:"updated_at"`
}

type completedRow struct {
	Key         string    `db:"key"`
	TaskID      string    `db:"task_id"`
	Answers     string    `db:"answers"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// LoadSession returns the session stored under key or wizard.ErrNotFound.
func (s *Store) LoadSession(ctx context.Context, key string) (*models.WizardSession, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT key, task_id, step_index, answers, updated_at FROM wizard_sessions WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wizard.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	sess := &models.WizardSession{
		TaskID:           row.TaskID,
		CurrentStepIndex: row.StepIndex,
		UpdatedAt:        row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("decode session answers: %w", err)
	}
	if sess.Answers == nil {
		sess.Answers = models.Answers{}
	}
	return sess, nil
}

// SaveSession upserts the session under key.
func (s *Store) SaveSession(ctx context.Context, key string, sess *models.WizardSession) error {
	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return fmt.Errorf("encode session answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_sessions (key, task_id, step_index, answers, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			task_id = excluded.task_id,
			step_index = excluded.step_index,
			answers = excluded.answers,
			updated_at = excluded.updated_at`,
		key, sess.TaskID, sess.CurrentStepIndex, string(answers), sess.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// DeleteSession removes the session under key.
func (s *Store) DeleteSession(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wizard.ErrNotFound
	}
	return nil
}

// SaveCompleted writes the completed record for key. An existing record is
// never overwritten.
func (s *Store) SaveCompleted(ctx context.Context, key string, c *models.CompletedSubmission) error {
	answers, err := json.Marshal(c.Answers)
	if err != nil {
		return fmt.Errorf("encode completed answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO completed_wizards (key, task_id, answers, submitted_at) VALUES (?, ?, ?, ?)`,
		key, c.TaskID, string(answers), c.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert completed: %w", err)
	}
	return nil
}

// LoadCompleted returns the completed record under key or wizard.ErrNotFound.
func (s *Store) LoadCompleted(ctx context.Context, key string) (*models.CompletedSubmission, error) {
	var row completedRow
	err := s.db.GetContext(ctx, &row,
		`SELECT key, task_id, answers, submitted_at FROM completed_wizards WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wizard.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query completed: %w", err)
	}

	c := &models.CompletedSubmission{TaskID: row.TaskID, SubmittedAt: row.SubmittedAt}
	if err := json.Unmarshal([]byte(row.Answers), &c.Answers); err != nil {
		return nil, fmt.Errorf("decode completed answers: %w", err)
	}
	return c, nil
}

// PruneSessions deletes sessions not updated since before. It returns the
// number of rows removed.
func (s *Store) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

var _ wizard.SessionStore = (*Store)(nil)
