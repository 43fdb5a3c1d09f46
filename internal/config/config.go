// README: Config loader with env defaults for HTTP, DB, Redis, Kafka, and auth settings.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Empty DSN/addr means the corresponding in-memory store is used, so the
	// binary runs locally without any infrastructure.
	DBDSN     string `mapstructure:"DB_DSN"`
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroup   string `mapstructure:"KAFKA_GROUP"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	MapsAPIKey string `mapstructure:"MAPS_API_KEY"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

func Load() (Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("KAFKA_TOPIC", "driver-locations")
	viper.SetDefault("KAFKA_GROUP", "rideloop-archiver")
	viper.SetDefault("JWT_SECRET", "dev-only-secret-change-me")
	viper.SetDefault("TOKEN_TTL", 2*time.Hour)
	viper.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)

	// A missing .env file is fine; env vars and defaults still apply.
	_ = viper.ReadInConfig()

	var cfg Config
	err := viper.Unmarshal(&cfg)
	return cfg, err
}
