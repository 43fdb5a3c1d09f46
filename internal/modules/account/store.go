// README: Account persistence interface plus the in-memory implementation.
package account

import (
	"context"
	"strings"
	"sync"

	"rideloop/internal/types"
)

type Store interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id types.ID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// MemoryStore keeps accounts in process memory. Used by tests and by
// deployments running without a database DSN.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[types.ID]*Account
	byEmail map[string]types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[types.ID]*Account),
		byEmail: make(map[string]types.ID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, exists := s.byEmail[key]; exists {
		return ErrEmailTaken
	}
	cp := *a
	s.byID[a.ID] = &cp
	s.byEmail[key] = a.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id types.ID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}
