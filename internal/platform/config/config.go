package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the durable store. Empty means in-memory stores
	// (tests, single-node demos).
	PostgresDSN string

	Redis RedisConfig

	// Kafka configures the best-effort event mirror. Empty brokers disable it.
	KafkaBrokers []string
	KafkaTopic   string

	ShutdownTimeout time.Duration
}

// RedisConfig holds connection settings for the pub/sub bridge and TTL cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("HEARTH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "hearth.notifications"
	}

	return Config{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers:    brokers,
		KafkaTopic:      topic,
		ShutdownTimeout: 10 * time.Second,
	}
}
