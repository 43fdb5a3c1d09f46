// README: Location ingest: authenticated driver reports, LWW by observed_at.
package location

import (
	"context"
	"errors"
	"time"

	"rideloop/internal/auth"
	"rideloop/internal/types"
)

var (
	ErrInvalidInput = errors.New("invalid location report")
	ErrForbidden    = errors.New("only the driver may report their own location")
	ErrUnavailable  = errors.New("location store unavailable")
)

// Publisher fans samples out to the archival pipeline. Optional; a nil
// publisher means store-only ingest.
type Publisher interface {
	PublishSample(ctx context.Context, s Sample) error
}

type Service struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

func NewService(store Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher, now: time.Now}
}

// Report stores a position report for the calling driver. observedAt may be
// zero, in which case the server clock is used. Reports are accepted whether
// or not the driver is bound to an active ride; stale ones are dropped by the
// store's last-writer-wins guard and reported as stored=false.
func (s *Service) Report(ctx context.Context, actor auth.Actor, p types.Point, observedAt time.Time) (Sample, bool, error) {
	if !actor.IsDriver() {
		return Sample{}, false, ErrForbidden
	}
	if !p.Valid() {
		return Sample{}, false, ErrInvalidInput
	}
	if observedAt.IsZero() {
		observedAt = s.now()
	}
	smp := Sample{DriverID: actor.ID, Point: p, ObservedAt: observedAt}
	stored, err := s.store.Upsert(ctx, smp)
	if err != nil {
		return Sample{}, false, err
	}
	if stored && s.publisher != nil {
		// Archival fan-out must not fail the ingest path.
		_ = s.publisher.PublishSample(ctx, smp)
	}
	return smp, stored, nil
}

// Last returns the newest known position for a driver. It satisfies the ride
// module's DriverLocator dependency.
func (s *Service) Last(ctx context.Context, driverID types.ID) (types.Point, time.Time, bool, error) {
	smp, ok, err := s.store.Last(ctx, driverID)
	if err != nil || !ok {
		return types.Point{}, time.Time{}, false, err
	}
	return smp.Point, smp.ObservedAt, true, nil
}
