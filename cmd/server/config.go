package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type config struct {
	Port             string
	DatabaseURL      string
	KafkaBrokers     []string
	KafkaTopic       string
	ProcessorBaseURL string
	ProcessorAPIKey  string
	QueueWorkers     int
	QueueBuffer      int
}

// loadConfig reads settings from the environment, after loading a .env file
// if one is present.
func loadConfig() config {
	_ = godotenv.Load()

	return config{
		Port:             envOr("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:       envOr("KAFKA_TOPIC", "transaction-notifications"),
		ProcessorBaseURL: envOr("PROCESSOR_BASE_URL", "https://api.stripe.com"),
		ProcessorAPIKey:  os.Getenv("PROCESSOR_API_KEY"),
		QueueWorkers:     envOrInt("QUEUE_WORKERS", 4),
		QueueBuffer:      envOrInt("QUEUE_BUFFER", 256),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
