// README: Ride service implements lifecycle transitions, authorization, and the poll snapshot.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rideloop/internal/auth"
	"rideloop/internal/modules/location"
	"rideloop/internal/types"
)

var (
	ErrInvalidInput = errors.New("invalid ride request")
	ErrNotFound     = errors.New("ride not found")
	ErrForbidden    = errors.New("actor not allowed for this ride")
	ErrConflict     = errors.New("conflicting ride state")
	ErrUnavailable  = errors.New("ride store unavailable")
)

// DriverLocator reads the newest known position for a driver. Implemented by
// the location service.
type DriverLocator interface {
	Last(ctx context.Context, driverID types.ID) (types.Point, time.Time, bool, error)
}

// Geocoder resolves a human-readable label for a coordinate. Optional;
// creation falls back to the caller-supplied labels when nil or failing.
type Geocoder interface {
	Label(ctx context.Context, p types.Point) (string, error)
}

// StatusListener is notified after every applied transition. Optional; used
// by the websocket push hub. Polling via Snapshot stays the primary contract.
type StatusListener interface {
	RideChanged(snap Snapshot)
}

type Service struct {
	store    Store
	locator  DriverLocator
	geocoder Geocoder
	listener StatusListener
	now      func() time.Time
}

// NewService wires the lifecycle engine. locator may not be nil; geocoder and
// listener may be.
func NewService(store Store, locator DriverLocator, geocoder Geocoder, listener StatusListener) *Service {
	return &Service{store: store, locator: locator, geocoder: geocoder, listener: listener, now: time.Now}
}

type CreateCommand struct {
	Pickup  types.Place
	Dropoff types.Place
}

type AdvanceCommand struct {
	RideID types.ID
	Target Status
}

type CancelCommand struct {
	RideID types.ID
	Reason string
}

// DriverPosition is the live position surfaced in a snapshot.
type DriverPosition struct {
	types.Point
	ObservedAt time.Time `json:"observed_at"`
}

// Snapshot is a read-consistent view of one ride for its participants. The
// ride row is read first and the position only afterwards, and only for
// tracking statuses, so a position can never appear next to a pre-acceptance
// status. Clients poll this on an interval; intermediate states may be
// skipped, never reordered.
type Snapshot struct {
	RideID         types.ID        `json:"ride_id"`
	Status         Status          `json:"status"`
	Pickup         types.Place     `json:"pickup"`
	Dropoff        types.Place     `json:"dropoff"`
	RiderID        types.ID        `json:"rider_id"`
	DriverID       *types.ID       `json:"driver_id,omitempty"`
	DriverPosition *DriverPosition `json:"driver_position,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// AvailableRide is one Availability Index entry shown to polling drivers.
type AvailableRide struct {
	RideID    types.ID    `json:"ride_id"`
	Pickup    types.Place `json:"pickup"`
	Dropoff   types.Place `json:"dropoff"`
	CreatedAt time.Time   `json:"created_at"`
	// PickupDistanceKm is filled when the polling driver has a known
	// position; -1 means unknown.
	PickupDistanceKm float64 `json:"pickup_distance_km"`
}

// Create posts a new ride request for the calling rider. The rider identity
// comes from the authenticated actor, never from the payload.
func (s *Service) Create(ctx context.Context, actor auth.Actor, cmd CreateCommand) (types.ID, error) {
	if !actor.IsRider() {
		return "", ErrForbidden
	}
	if !cmd.Pickup.Point.Valid() || !cmd.Dropoff.Point.Valid() {
		return "", ErrInvalidInput
	}
	if cmd.Pickup.Point == cmd.Dropoff.Point {
		return "", ErrInvalidInput
	}

	if s.geocoder != nil {
		if cmd.Pickup.Label == "" {
			if label, err := s.geocoder.Label(ctx, cmd.Pickup.Point); err == nil {
				cmd.Pickup.Label = label
			}
		}
		if cmd.Dropoff.Label == "" {
			if label, err := s.geocoder.Label(ctx, cmd.Dropoff.Point); err == nil {
				cmd.Dropoff.Label = label
			}
		}
	}

	now := s.now()
	r := &Ride{
		ID:            types.ID(uuid.NewString()),
		RiderID:       actor.ID,
		Status:        StatusPending,
		StatusVersion: 0,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:     r.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorRole:  string(auth.RoleRider),
		ActorID:    &actor.ID,
		CreatedAt:  now,
	})
	return r.ID, nil
}

// ListAvailable returns the Availability Index: pending rides oldest first.
// There is no reservation at read time; contention resolves at Accept.
func (s *Service) ListAvailable(ctx context.Context, actor auth.Actor) ([]AvailableRide, error) {
	if !actor.IsDriver() {
		return nil, ErrForbidden
	}
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	pos, _, hasPos, _ := s.locator.Last(ctx, actor.ID)

	out := make([]AvailableRide, 0, len(pending))
	for _, r := range pending {
		a := AvailableRide{
			RideID:           r.ID,
			Pickup:           r.Pickup,
			Dropoff:          r.Dropoff,
			CreatedAt:        r.CreatedAt,
			PickupDistanceKm: -1,
		}
		if hasPos {
			a.PickupDistanceKm = location.DistanceKm(pos, r.Pickup.Point)
		}
		out = append(out, a)
	}
	return out, nil
}

// Accept binds the calling driver to a pending ride. First CAS winner takes
// the ride; every loser gets ErrConflict.
func (s *Service) Accept(ctx context.Context, actor auth.Actor, rideID types.ID) error {
	if !actor.IsDriver() {
		return ErrForbidden
	}
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusAccepted) || r.DriverID != nil {
		return ErrConflict
	}
	return s.apply(ctx, r, StatusAccepted, actor, &actor.ID)
}

// Advance moves an accepted ride forward: picked_up, on_the_way, or finished.
// Only the bound driver may call it. A stale expectation fails with
// ErrConflict and keeps failing on retry until a legal predecessor applied.
func (s *Service) Advance(ctx context.Context, actor auth.Actor, cmd AdvanceCommand) error {
	switch cmd.Target {
	case StatusPickedUp, StatusOnTheWay, StatusFinished:
	default:
		return ErrInvalidInput
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if !actor.IsDriver() || r.DriverID == nil || *r.DriverID != actor.ID {
		return ErrForbidden
	}
	if !CanTransition(r.Status, cmd.Target) {
		return ErrConflict
	}
	return s.apply(ctx, r, cmd.Target, actor, nil)
}

// Cancel aborts a ride before pickup. The bound rider may cancel while
// pending or accepted; the bound driver only after acceptance.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, cmd CancelCommand) error {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	switch {
	case actor.IsRider() && r.RiderID == actor.ID:
	case actor.IsDriver() && r.DriverID != nil && *r.DriverID == actor.ID:
	default:
		return ErrForbidden
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return ErrConflict
	}
	return s.apply(ctx, r, StatusCancelled, actor, nil)
}

// Get returns the poll snapshot for a ride participant.
func (s *Service) Get(ctx context.Context, actor auth.Actor, rideID types.ID) (Snapshot, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return Snapshot{}, err
	}
	if !s.participant(actor, r) {
		return Snapshot{}, ErrForbidden
	}
	return s.snapshot(ctx, r), nil
}

// apply runs the CAS transition and the post-transition bookkeeping shared by
// every mutation path.
func (s *Service) apply(ctx context.Context, r *Ride, to Status, actor auth.Actor, driverID *types.ID) error {
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, r.StatusVersion, driverID, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:     r.ID,
		FromStatus: r.Status,
		ToStatus:   to,
		ActorRole:  string(actor.Role),
		ActorID:    &actor.ID,
		CreatedAt:  now,
	})
	if s.listener != nil {
		if fresh, err := s.store.Get(ctx, r.ID); err == nil {
			s.listener.RideChanged(s.snapshot(ctx, fresh))
		}
	}
	return nil
}

func (s *Service) participant(actor auth.Actor, r *Ride) bool {
	if actor.IsRider() {
		return r.RiderID == actor.ID
	}
	return r.DriverID != nil && *r.DriverID == actor.ID
}

// snapshot reads the position only after the ride row and only for tracking
// statuses, so the view is never torn across pre-acceptance instants.
func (s *Service) snapshot(ctx context.Context, r *Ride) Snapshot {
	snap := Snapshot{
		RideID:      r.ID,
		Status:      r.Status,
		Pickup:      r.Pickup,
		Dropoff:     r.Dropoff,
		RiderID:     r.RiderID,
		DriverID:    r.DriverID,
		CreatedAt:   r.CreatedAt,
		AcceptedAt:  r.AcceptedAt,
		CompletedAt: r.CompletedAt,
	}
	if r.Status.Tracking() && r.DriverID != nil {
		if p, ts, ok, err := s.locator.Last(ctx, *r.DriverID); err == nil && ok {
			snap.DriverPosition = &DriverPosition{Point: p, ObservedAt: ts}
		}
	}
	return snap
}
