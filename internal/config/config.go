// Package config loads triggerd's configuration from the environment
// (optionally via a .env file), following RezaEskandarii-GoFire's
// types/config functional-options construction style generalized beyond a
// single GofireConfig struct.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// BusDriver selects which Publisher implementation is wired up.
type BusDriver string

const (
	BusKafka    BusDriver = "kafka"
	BusRabbitMQ BusDriver = "rabbitmq"
)

// Config is the full process configuration: listen port, DB URL, bus
// bootstrap endpoints, topic name, default zone (spec §6).
type Config struct {
	ListenAddr   string
	PostgresURL  string
	RedisAddr    string
	DefaultZone  string
	WorkerCount  int64

	BusDriver     BusDriver
	KafkaBrokers  string
	KafkaTopic    string
	RabbitMQURL   string
	RabbitMQQueue string
}

// Option is a functional option over Config, mirroring the teacher's
// Option type in types/config/config.go.
type Option func(*Config)

func defaults() Config {
	return Config{
		ListenAddr:    ":8080",
		DefaultZone:   "UTC",
		WorkerCount:   10,
		BusDriver:     BusKafka,
		KafkaTopic:    "user-data",
		RabbitMQQueue: "user-data",
	}
}

// Load reads a .env file if present (missing is not an error, matching
// godotenv's typical usage), then builds a Config from the environment,
// applying any explicit overrides last.
func Load(opts ...Option) Config {
	_ = godotenv.Load()

	cfg := defaults()
	cfg.ListenAddr = envOr("TRIGGERD_LISTEN_ADDR", cfg.ListenAddr)
	cfg.PostgresURL = envOr("TRIGGERD_POSTGRES_URL", cfg.PostgresURL)
	cfg.RedisAddr = envOr("TRIGGERD_REDIS_ADDR", cfg.RedisAddr)
	cfg.DefaultZone = envOr("TRIGGERD_DEFAULT_ZONE", cfg.DefaultZone)
	cfg.WorkerCount = envOrInt("TRIGGERD_WORKER_COUNT", cfg.WorkerCount)

	if driver := os.Getenv("TRIGGERD_BUS_DRIVER"); driver != "" {
		cfg.BusDriver = BusDriver(driver)
	}
	cfg.KafkaBrokers = envOr("TRIGGERD_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOr("TRIGGERD_KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.RabbitMQURL = envOr("TRIGGERD_RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQQueue = envOr("TRIGGERD_RABBITMQ_QUEUE", cfg.RabbitMQQueue)

	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithListenAddr(addr string) Option {
	return func(c *Config) { c.ListenAddr = addr }
}

func WithWorkerCount(n int64) Option {
	return func(c *Config) { c.WorkerCount = n }
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
