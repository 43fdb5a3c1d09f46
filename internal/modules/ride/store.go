// README: Ride store contract; implementations must provide CAS transitions.
package ride

import (
	"context"
	"time"

	"rideloop/internal/types"
)

// Store is the durable ride record. UpdateStatus is the only mutation after
// Create and must be atomic: it applies from→to if and only if the row still
// holds (from, version), so no two conflicting transitions can both succeed.
// driverID, when non-nil, is bound as part of the same atomic write (accept).
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	// ListPending returns rides with no driver yet, oldest created first.
	ListPending(ctx context.Context) ([]*Ride, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, at time.Time) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}
