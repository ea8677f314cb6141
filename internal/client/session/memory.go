package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
)

var errClosed = errors.New("session store closed")

// MemoryStore is a process-local Store, used in tests and for runs that must
// not leave a session on disk.
type MemoryStore struct {
	mu      sync.RWMutex
	session *models.Session
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.session == nil {
		return models.Session{}, false
	}
	return *m.session, true
}

func (m *MemoryStore) Save(_ context.Context, s models.Session) error {
	if !s.Valid() {
		return fmt.Errorf("save session: %w", common.ErrEmptyInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.session = &s
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.session = nil
	return nil
}

// Close makes every later call fail; Load then reports no session.
func (m *MemoryStore) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

var _ Store = (*MemoryStore)(nil)
