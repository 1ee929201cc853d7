package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration for the tracking service.
type Server struct {
	Addr           string
	PostgresURL    string
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopic     string
	AdminRole      string
	ShutdownGrace  time.Duration
	RedisPoolSize  int
	RedisDialWait  time.Duration
	RedisReadWait  time.Duration
	RedisWriteWait time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Postgres, Redis and Kafka are all optional; absent values select in-memory
// stores and disable the corresponding side channels.
func FromEnv() Server {
	addr := os.Getenv("DOCTRACK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	adminRole := os.Getenv("DOCTRACK_ADMIN_ROLE")
	if adminRole == "" {
		adminRole = "admin"
	}

	topic := os.Getenv("DOCTRACK_KAFKA_TOPIC")
	if topic == "" {
		topic = "document.lifecycle"
	}

	var brokers []string
	if raw := os.Getenv("DOCTRACK_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:           addr,
		PostgresURL:    os.Getenv("DOCTRACK_POSTGRES_URL"),
		RedisURL:       os.Getenv("DOCTRACK_REDIS_URL"),
		KafkaBrokers:   brokers,
		KafkaTopic:     topic,
		AdminRole:      adminRole,
		ShutdownGrace:  10 * time.Second,
		RedisPoolSize:  10,
		RedisDialWait:  5 * time.Second,
		RedisReadWait:  3 * time.Second,
		RedisWriteWait: 3 * time.Second,
	}
}
