// README: Location store contract plus the in-memory implementation.
package location

import (
	"context"
	"sync"

	"rideloop/internal/types"
)

// Store keeps the most recent sample per driver. Upsert must apply
// last-writer-wins by ObservedAt atomically: a sample older than the stored
// one is reported stale and leaves the store untouched.
type Store interface {
	Upsert(ctx context.Context, s Sample) (stored bool, err error)
	Last(ctx context.Context, driverID types.ID) (Sample, bool, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	samples map[types.ID]Sample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{samples: make(map[types.ID]Sample)}
}

func (m *MemoryStore) Upsert(_ context.Context, s Sample) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.samples[s.DriverID]; ok && prev.ObservedAt.After(s.ObservedAt) {
		return false, nil
	}
	m.samples[s.DriverID] = s
	return true, nil
}

func (m *MemoryStore) Last(_ context.Context, driverID types.ID) (Sample, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.samples[driverID]
	return s, ok, nil
}
