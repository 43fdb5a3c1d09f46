// README: Ride aggregate and status definitions.
package ride

import (
	"time"

	"rideloop/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusOnTheWay  Status = "on_the_way"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

type Ride struct {
	ID            types.ID
	RiderID       types.ID
	DriverID      *types.ID
	Status        Status
	StatusVersion int
	Pickup        types.Place
	Dropoff       types.Place
	CreatedAt     time.Time
	AcceptedAt    *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// Event is one applied transition, kept as an append-only audit trail.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorRole  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow (diagram) as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusPickedUp, StatusCancelled},
	StatusPickedUp: {StatusOnTheWay},
	StatusOnTheWay: {StatusFinished},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is legal.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Tracking reports whether the driver position is surfaced to ride
// participants: only between acceptance and completion.
func (s Status) Tracking() bool {
	return s == StatusAccepted || s == StatusPickedUp || s == StatusOnTheWay
}
