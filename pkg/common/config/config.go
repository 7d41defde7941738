package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers     []string
	KafkaGroupID     string
	MenuEventsTopic  string
	SyncResultsTopic string

	// Menu service
	MenuServiceBaseURL string
	MenuServiceAPIKey  string
	MenuServiceTimeout time.Duration
	MenuCacheTTL       time.Duration

	// Sync orchestration
	SyncRetryDelay time.Duration

	// Platform adapters
	PlatformsConfigPath string

	// Admin API
	AdminAPIKeys []string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "menuflow"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "menuflow123"),
		PostgresDB:       getEnv("POSTGRES_DB", "menuflow"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "menuflow-sync"),
		MenuEventsTopic:  getEnv("MENU_EVENTS_TOPIC", "menu-events"),
		SyncResultsTopic: getEnv("SYNC_RESULTS_TOPIC", "sync-results"),

		MenuServiceBaseURL: getEnv("MENU_SERVICE_BASE_URL", "http://localhost:8090"),
		MenuServiceAPIKey:  getEnv("MENU_SERVICE_API_KEY", ""),
		MenuServiceTimeout: getDuration("MENU_SERVICE_TIMEOUT", 10*time.Second),
		MenuCacheTTL:       getDuration("MENU_CACHE_TTL", 60*time.Second),

		SyncRetryDelay: getDuration("SYNC_RETRY_DELAY", 2*time.Second),

		PlatformsConfigPath: getEnv("PLATFORMS_CONFIG_PATH", ""),

		AdminAPIKeys: getStringSliceEnv("ADMIN_API_KEYS", nil),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
