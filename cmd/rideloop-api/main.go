// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"rideloop/internal/auth"
	"rideloop/internal/config"
	apihttp "rideloop/internal/http"
	"rideloop/internal/infra"
	"rideloop/internal/ingest"
	"rideloop/internal/logging"
	"rideloop/internal/maps"
	"rideloop/internal/modules/account"
	"rideloop/internal/modules/location"
	"rideloop/internal/modules/ride"
	"rideloop/internal/push"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokenSvc := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	var accountStore account.Store = account.NewMemoryStore()
	var rideStore ride.Store = ride.NewMemoryStore()
	var locationStore location.Store = location.NewMemoryStore()

	if cfg.DBDSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal("postgres init", zap.Error(err))
		}
		defer dbPool.Close()
		accountStore = account.NewPGStore(dbPool)
		rideStore = ride.NewPGStore(dbPool)
	} else {
		logger.Warn("no DB_DSN set, using in-memory stores")
	}

	if cfg.RedisAddr != "" {
		redisClient := infra.NewRedis(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		locationStore = location.NewRedisStore(redisClient)
	} else {
		logger.Warn("no REDIS_ADDR set, using in-memory location store")
	}

	var publisher location.Publisher
	if cfg.KafkaBrokers != "" {
		producer := ingest.NewKafkaProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	var geocoder ride.Geocoder
	if cfg.MapsAPIKey != "" {
		gc, err := maps.NewGeocodeService(cfg.MapsAPIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		geocoder = gc
	}

	hub := push.NewHub()
	locationSvc := location.NewService(locationStore, publisher)
	rideSvc := ride.NewService(rideStore, locationSvc, geocoder, hub)
	accountSvc := account.NewService(accountStore, tokenSvc)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Verifier: tokenSvc,
		Accounts: accountSvc,
		Rides:    rideSvc,
		Location: locationSvc,
		Hub:      hub,
		Log:      logger,
	})

	server := apihttp.NewServer(cfg.HTTPAddr, router, logger)
	if err := server.Run(ctx, cfg.ShutdownTimeout); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
