package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cloud forwarder (empty URL disables forwarding)
	CloudURL       string
	CloudTimeoutMS int

	// MQTT ingest source (empty address disables it)
	MQTTAddr     string
	MQTTClientID string
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string

	// Pipeline channels
	StoreChannelSize    int
	StateChannelSize    int
	DecisionChannelSize int

	// Batch writer tuning
	StoreBatchSize       int
	StoreFlushIntervalMS int

	// Worker counts
	StoreWriterWorkers int
	StateWriterWorkers int
	DecisionWorkers    int

	// Recommendation dedup window
	DedupTTLSeconds int

	// Auth
	AuthCacheTTLSeconds int
	ValidAPIKeys        []string
}

func Load() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8001"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "fleet_user"),
		DBPassword:           getEnv("DB_PASSWORD", "fleet_password"),
		DBName:               getEnv("DB_NAME", "ev_fleet"),
		DBMaxConns:           int32(getEnvInt("DB_MAX_CONNS", 15)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		CloudURL:             getEnv("CLOUD_URL", ""),
		CloudTimeoutMS:       getEnvInt("CLOUD_TIMEOUT_MS", 5000),
		MQTTAddr:             getEnv("MQTT_ADDR", ""),
		MQTTClientID:         getEnv("MQTT_CLIENT_ID", "ev-fleet-optimizer"),
		MQTTTopic:            getEnv("MQTT_TOPIC", "fleet/telemetry"),
		MQTTUsername:         getEnv("MQTT_USERNAME", ""),
		MQTTPassword:         getEnv("MQTT_PASSWORD", ""),
		StoreChannelSize:     getEnvInt("STORE_CHANNEL_SIZE", 10000),
		StateChannelSize:     getEnvInt("STATE_CHANNEL_SIZE", 50000),
		DecisionChannelSize:  getEnvInt("DECISION_CHANNEL_SIZE", 10000),
		StoreBatchSize:       getEnvInt("STORE_BATCH_SIZE", 500),
		StoreFlushIntervalMS: getEnvInt("STORE_FLUSH_INTERVAL_MS", 100),
		StoreWriterWorkers:   getEnvInt("STORE_WRITER_WORKERS", 10),
		StateWriterWorkers:   getEnvInt("STATE_WRITER_WORKERS", 5),
		DecisionWorkers:      getEnvInt("DECISION_WORKERS", 3),
		DedupTTLSeconds:      getEnvInt("DEDUP_TTL_SECONDS", 300),
		AuthCacheTTLSeconds:  getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		ValidAPIKeys:         strings.Split(getEnv("VALID_API_KEYS", ""), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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
