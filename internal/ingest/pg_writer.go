// README: PostgreSQL sink for the location archive.
package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rideloop/internal/modules/location"
)

type PGSampleWriter struct {
	db *pgxpool.Pool
}

func NewPGSampleWriter(db *pgxpool.Pool) *PGSampleWriter {
	return &PGSampleWriter{db: db}
}

func (w *PGSampleWriter) Archive(ctx context.Context, s location.Sample) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO location_samples (driver_id, lat, lng, observed_at)
		VALUES ($1, $2, $3, $4)`,
		string(s.DriverID), s.Point.Lat, s.Point.Lng, s.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}
