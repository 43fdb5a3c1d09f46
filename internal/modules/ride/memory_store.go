// README: In-memory ride store for tests and infrastructure-free runs.
package ride

import (
	"context"
	"sort"
	"sync"
	"time"

	"rideloop/internal/types"
)

// MemoryStore mirrors the Postgres store's semantics, including the CAS guard
// on UpdateStatus, under a single mutex.
type MemoryStore struct {
	mu     sync.RWMutex
	rides  map[types.ID]*Ride
	events []Event
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[types.ID]*Ride)}
}

func (m *MemoryStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) ListPending(_ context.Context) ([]*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Ride, 0)
	for _, r := range m.rides {
		if r.Status == StatusPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, driverID *types.ID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return false, nil
	}
	if r.Status != from || r.StatusVersion != version {
		return false, nil
	}
	r.Status = to
	r.StatusVersion++
	if driverID != nil && r.DriverID == nil {
		d := *driverID
		r.DriverID = &d
	}
	ts := at
	switch to {
	case StatusAccepted:
		r.AcceptedAt = &ts
	case StatusFinished:
		r.CompletedAt = &ts
	case StatusCancelled:
		r.CancelledAt = &ts
	}
	return true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *e
	cp.ID = m.nextID
	m.events = append(m.events, cp)
	return nil
}

// Events returns a copy of the audit trail for a ride, oldest first.
func (m *MemoryStore) Events(rideID types.ID) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, 0)
	for _, e := range m.events {
		if e.RideID == rideID {
			out = append(out, e)
		}
	}
	return out
}
