// README: Consumes location samples from Kafka and archives them to Postgres.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"rideloop/internal/config"
	"rideloop/internal/infra"
	"rideloop/internal/ingest"
	"rideloop/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.KafkaBrokers == "" {
		logger.Fatal("KAFKA_BROKERS is required")
	}
	if cfg.DBDSN == "" {
		logger.Fatal("DB_DSN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("postgres init", zap.Error(err))
	}
	defer dbPool.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer func() { _ = reader.Close() }()

	// Metrics and health on a side port.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := dbPool.Ping(r.Context()); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		})
		if err := http.ListenAndServe(":2112", mux); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("archiver consuming",
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroup),
	)

	archiver := ingest.NewArchiver(reader, ingest.NewPGSampleWriter(dbPool), logger)
	if err := archiver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("archiver stopped", zap.Error(err))
	}
	logger.Info("archiver shut down")
}
