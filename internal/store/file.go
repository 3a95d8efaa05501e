package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/wizard"
)

// FileStore keeps wizard progress as JSON files, one file per key:
// <dir>/cnslr-<key>.json for the session and
// <dir>/completed/cnslr-success-<key>.json for the completed record. The
// two live in separate directories so no session key can name a
// completed record.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory files are written to.
func (s *FileStore) Dir() string { return s.dir }

const completedDir = "completed"

func (s *FileStore) sessionPath(key string) string {
	return filepath.Join(s.dir, "cnslr-"+key+".json")
}

func (s *FileStore) completedPath(key string) string {
	return filepath.Join(s.dir, completedDir, "cnslr-success-"+key+".json")
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid store key %q", key)
	}
	return nil
}

// LoadSession reads the session for key. A missing file is wizard.ErrNotFound;
// an unreadable file is returned as a decode error.
func (s *FileStore) LoadSession(ctx context.Context, key string) (*models.WizardSession, error) {
	var sess models.WizardSession
	if err := s.read(key, s.sessionPath(key), &sess); err != nil {
		return nil, err
	}
	if sess.Answers == nil {
		sess.Answers = models.Answers{}
	}
	return &sess, nil
}

func (s *FileStore) SaveSession(ctx context.Context, key string, sess *models.WizardSession) error {
	return s.write(key, s.sessionPath(key), sess)
}

func (s *FileStore) DeleteSession(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(s.sessionPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return wizard.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *FileStore) SaveCompleted(ctx context.Context, key string, c *models.CompletedSubmission) error {
	return s.write(key, s.completedPath(key), c)
}

func (s *FileStore) LoadCompleted(ctx context.Context, key string) (*models.CompletedSubmission, error) {
	var c models.CompletedSubmission
	if err := s.read(key, s.completedPath(key), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *FileStore) read(key, path string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return wizard.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// write replaces path atomically: temp file then rename.
func (s *FileStore) write(key, path string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}

var _ wizard.SessionStore = (*FileStore)(nil)
