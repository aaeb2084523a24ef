package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServiceName string
	Env         string

	HTTPAddr string

	// CollaboratorTimeout bounds synchronous calls into other bounded contexts
	// (cart lookup, product/user validation).
	CollaboratorTimeout time.Duration
	// PublishTimeout bounds event publishing to the bus.
	PublishTimeout time.Duration

	BusQueueSize   int
	BusConcurrency int
}

func Load() Config {
	return Config{
		ServiceName:         getEnv("SERVICE_NAME", "shop"),
		Env:                 getEnv("ENV", "dev"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		CollaboratorTimeout: getEnvDuration("COLLABORATOR_TIMEOUT", 2*time.Second),
		PublishTimeout:      getEnvDuration("PUBLISH_TIMEOUT", 300*time.Millisecond),
		BusQueueSize:        getEnvInt("BUS_QUEUE_SIZE", 1024),
		BusConcurrency:      getEnvInt("BUS_CONCURRENCY", 8),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
