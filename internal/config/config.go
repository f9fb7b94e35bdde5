package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PGDSN        string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	HTTPAddr     string
	OTLPEndpoint string

	// DecisionBaseURL is the public endpoint the owner's approve/reject
	// links point at.
	DecisionBaseURL string

	// HoldTTL is how long a pending reservation keeps its slots before the
	// reclaimer hands them back.
	HoldTTL       time.Duration
	SweepInterval time.Duration

	// CancelNotice is the minimum lead time before the earliest slot at which
	// a customer may still request cancellation.
	CancelNotice       time.Duration
	RefundPercent      int
	PenaltyPercent     int
	PlatformFeePercent int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		PGDSN:              os.Getenv("PG_DSN"),
		MongoURI:           os.Getenv("MONGO_URI"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RabbitURL:          os.Getenv("RABBIT_URL"),
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		DecisionBaseURL:    envOr("DECISION_BASE_URL", "http://localhost:8080/v1/cancellations/decide"),
		HoldTTL:            envDuration("HOLD_TTL", 15*time.Minute),
		SweepInterval:      envDuration("SWEEP_INTERVAL", time.Minute),
		CancelNotice:       envDuration("CANCEL_NOTICE", 12*time.Hour),
		RefundPercent:      envInt("REFUND_PERCENT", 80),
		PenaltyPercent:     envInt("PENALTY_PERCENT", 20),
		PlatformFeePercent: envInt("PLATFORM_FEE_PERCENT", 10),
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d == 0 {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}
