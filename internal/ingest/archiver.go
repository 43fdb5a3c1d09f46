// README: Kafka consumer that archives location samples into PostgreSQL.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"rideloop/internal/modules/location"
	"rideloop/internal/types"
)

var (
	archiverConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_messages_consumed_total",
		Help: "Total location messages consumed",
	})
	archiverInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_messages_invalid_total",
		Help: "Total undecodable messages received",
	})
	archiverStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_samples_stored_total",
		Help: "Total samples written to the archive",
	})
	archiverErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_store_errors_total",
		Help: "Total archive write failures after retries",
	})
)

// MessageReader is the subset of kafka.Reader the archiver loop needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// SampleWriter persists one sample to the archive.
type SampleWriter interface {
	Archive(ctx context.Context, s location.Sample) error
}

type Archiver struct {
	reader   MessageReader
	writer   SampleWriter
	log      *zap.Logger
	attempts int
	delay    time.Duration
}

func NewArchiver(reader MessageReader, writer SampleWriter, log *zap.Logger) *Archiver {
	return &Archiver{reader: reader, writer: writer, log: log, attempts: 3, delay: 200 * time.Millisecond}
}

// Run consumes until ctx is cancelled. Read errors back off exponentially;
// undecodable messages are counted and skipped, never retried.
func (a *Archiver) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := a.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.log.Warn("kafka read failed", zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		archiverConsumed.Inc()

		var msg SampleMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			archiverInvalid.Inc()
			a.log.Warn("invalid sample message", zap.Error(err))
			continue
		}
		s := location.Sample{
			DriverID:   types.ID(msg.DriverID),
			Point:      types.Point{Lat: msg.Lat, Lng: msg.Lng},
			ObservedAt: msg.ObservedAt,
		}
		if err := a.archiveWithRetry(ctx, s); err != nil {
			archiverErrors.Inc()
			a.log.Error("archive failed", zap.String("driver_id", msg.DriverID), zap.Error(err))
			continue
		}
		archiverStored.Inc()
	}
}

func (a *Archiver) archiveWithRetry(ctx context.Context, s location.Sample) error {
	delay := a.delay
	var err error
	for i := 0; i < a.attempts; i++ {
		if err = a.writer.Archive(ctx, s); err == nil {
			return nil
		}
		if i == a.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
