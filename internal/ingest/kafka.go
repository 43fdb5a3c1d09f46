// README: Kafka fan-out for accepted location samples.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"rideloop/internal/modules/location"
)

// SampleMessage is the wire envelope for one location sample. Messages are
// keyed by driver so per-driver ordering holds within a partition.
type SampleMessage struct {
	DriverID   string    `json:"driver_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ObservedAt time.Time `json:"observed_at"`
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaProducer{writer: w}
}

// PublishSample satisfies location.Publisher. Best effort with a short
// timeout; the caller treats failures as non-fatal.
func (k *KafkaProducer) PublishSample(ctx context.Context, s location.Sample) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := json.Marshal(SampleMessage{
		DriverID:   string(s.DriverID),
		Lat:        s.Point.Lat,
		Lng:        s.Point.Lng,
		ObservedAt: s.ObservedAt,
	})
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(s.DriverID), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
