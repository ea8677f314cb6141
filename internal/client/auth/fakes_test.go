package auth

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/memora/internal/client/models"
)

type fakeStore struct {
	mu sync.Mutex

	Session  *models.Session
	ClearErr error

	LoadCalls  int
	ClearCalls int
	LastSaved  models.Session

	// LoadGate, when set, blocks Load until closed.
	LoadGate chan struct{}
}

func (f *fakeStore) Load(context.Context) (models.Session, bool) {
	if f.LoadGate != nil {
		<-f.LoadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadCalls++
	if f.Session == nil {
		return models.Session{}, false
	}
	return *f.Session, true
}

func (f *fakeStore) Save(_ context.Context, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastSaved = s
	f.Session = &s
	return nil
}

func (f *fakeStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Session = nil
	return nil
}

func (f *fakeStore) has() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Session != nil
}
