package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr string

	// AutoPassThreshold is the minimum machine confidence for a MATCH result
	// to skip human review. Owned by deployment config, not by the core.
	AutoPassThreshold float64

	// ResolutionFloor is the minimum candidate score for a system trade to be
	// accepted as the comparison target.
	ResolutionFloor float64

	// MismatchBoundary is the fraction of bad fields above which a result is
	// MISMATCH rather than PARTIAL.
	MismatchBoundary float64

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// RulesPath points at the JSON rule-set file. Empty keeps rules in memory.
	RulesPath string
}

// RedisConfig configures the optional Redis validation-result store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres trade store.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the optional Kafka audit publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("AFFIRM_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("AFFIRM_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "affirm.audit.v1"
	}

	return Server{
		Addr:              addr,
		AutoPassThreshold: envFloat("AFFIRM_AUTO_PASS_THRESHOLD", 0.90),
		ResolutionFloor:   envFloat("AFFIRM_RESOLUTION_FLOOR", 0.5),
		MismatchBoundary:  envFloat("AFFIRM_MISMATCH_BOUNDARY", 0.5),
		Redis: RedisConfig{
			URL:          os.Getenv("AFFIRM_REDIS_URL"),
			PoolSize:     envInt("AFFIRM_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("AFFIRM_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("AFFIRM_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("AFFIRM_KAFKA_BROKERS")),
			Topic:   topic,
		},
		RulesPath: os.Getenv("AFFIRM_RULES_PATH"),
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
