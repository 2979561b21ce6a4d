package store

import (
	"context"
	"sync"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// MemoryStore is an in-memory session store, primarily for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	session *core.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() ports.SessionStore {
	return &MemoryStore{}
}

// Save stores the session.
func (s *MemoryStore) Save(ctx context.Context, session core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

// Load returns the stored session or core.ErrNoSession.
func (s *MemoryStore) Load(ctx context.Context) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return core.Session{}, core.ErrNoSession
	}
	return *s.session, nil
}

// Clear drops the stored session.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
