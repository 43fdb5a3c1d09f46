// README: Ride store backed by PostgreSQL; transitions use a conditional UPDATE.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideloop/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			ride_id, rider_id, driver_id, status, status_version,
			pickup_lat, pickup_lng, pickup_label,
			dropoff_lat, dropoff_lng, dropoff_label,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12
		)`,
		string(r.ID),
		string(r.RiderID),
		idPtr(r.DriverID),
		string(r.Status),
		r.StatusVersion,
		r.Pickup.Lat, r.Pickup.Lng, r.Pickup.Label,
		r.Dropoff.Lat, r.Dropoff.Lng, r.Dropoff.Label,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT ride_id, rider_id, driver_id, status, status_version,
		       pickup_lat, pickup_lng, pickup_label,
		       dropoff_lat, dropoff_lng, dropoff_label,
		       created_at, accepted_at, completed_at, cancelled_at
		FROM rides
		WHERE ride_id = $1`, string(id),
	)
	return scanRide(row)
}

func (s *PGStore) ListPending(ctx context.Context) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ride_id, rider_id, driver_id, status, status_version,
		       pickup_lat, pickup_lng, pickup_label,
		       dropoff_lat, dropoff_lng, dropoff_label,
		       created_at, accepted_at, completed_at, cancelled_at
		FROM rides
		WHERE status = 'pending'
		ORDER BY created_at ASC, ride_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]*Ride, 0)
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// UpdateStatus is the compare-and-swap: the WHERE clause pins the expected
// (status, status_version) pair, so a lost race affects zero rows.
func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE(driver_id, $2),
		    accepted_at = CASE WHEN $1 = 'accepted' THEN $3 ELSE accepted_at END,
		    completed_at = CASE WHEN $1 = 'finished' THEN $3 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN $3 ELSE cancelled_at END
		WHERE ride_id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		idPtr(driverID),
		at,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_events (
			ride_id, from_status, to_status, actor_role, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorRole,
		idPtr(e.ActorID),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var driverID sql.NullString
	var acceptedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.RiderID, &driverID, &r.Status, &r.StatusVersion,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Pickup.Label,
		&r.Dropoff.Lat, &r.Dropoff.Lng, &r.Dropoff.Label,
		&r.CreatedAt, &acceptedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if driverID.Valid {
		d := types.ID(driverID.String)
		r.DriverID = &d
	}
	r.AcceptedAt = timePtr(acceptedAt)
	r.CompletedAt = timePtr(completedAt)
	r.CancelledAt = timePtr(cancelledAt)
	return &r, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
