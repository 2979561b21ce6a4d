package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// FileStore persists the session as a JSON file so it survives process
// restarts. The file is written 0600; the token inside is a live credential.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed session store at path.
func NewFileStore(path string) ports.SessionStore {
	return &FileStore{path: path}
}

// Save writes the session atomically via a temp file rename.
func (s *FileStore) Save(ctx context.Context, session core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load reads the persisted session, returning core.ErrNoSession when the
// file does not exist.
func (s *FileStore) Load(ctx context.Context) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Session{}, core.ErrNoSession
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return core.Session{}, fmt.Errorf("failed to decode session file: %w", err)
	}
	if session.Token == "" {
		return core.Session{}, core.ErrNoSession
	}
	return session, nil
}

// Clear removes the session file. A missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
