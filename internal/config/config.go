package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr           string
	LogLevel           string
	MongoURI           string
	DatabaseURL        string
	RedisAddr          string
	RabbitURL          string
	OTLPEndpoint       string
	HoldTTL            time.Duration
	ExpiryInterval     time.Duration
	IdempotencyTTL     time.Duration
	MaxShowSeats       int
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:           stringOr("HTTP_ADDR", ":8080"),
		LogLevel:           stringOr("LOG_LEVEL", "info"),
		MongoURI:           os.Getenv("MONGO_URI"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RabbitURL:          os.Getenv("RABBIT_URL"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		HoldTTL:            durationOr("HOLD_TTL", 15*time.Minute),
		ExpiryInterval:     durationOr("EXPIRY_INTERVAL", time.Minute),
		IdempotencyTTL:     durationOr("IDEMPOTENCY_TTL", time.Hour),
		MaxShowSeats:       intOr("MAX_SHOW_SEATS", 1000),
		RateLimitPerMinute: intOr("RATE_LIMIT_PER_MINUTE", 100),
	}, nil
}

func stringOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d <= 0 {
		return def
	}
	return d
}

func intOr(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
