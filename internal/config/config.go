package config

import (
	"os"
	"strconv"
	"time"

	"kinogate/internal/cache"
	"kinogate/internal/database"
	"kinogate/internal/external"
	"kinogate/internal/messaging"
	"kinogate/internal/qr"
	"kinogate/internal/search"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// JWTSecret verifies the requester identity token. Account and session
	// management live outside this service; the middleware only extracts a
	// verified user id from the token.
	JWTSecret string

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch search.Config
	QR            qr.Config
	Email         external.EmailConfig
	Payment       external.PaymentConfig
}

// Load reads configuration from environment variables. A local .env file is
// loaded first when present; real environment variables take precedence.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "kinogate"),
			Password:           getEnv("DB_PASSWORD", "kinogate123"),
			DBName:             getEnv("DB_NAME", "kinogate"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "kinogate"),
			ClientID:  getEnv("NATS_CLIENT_ID", "kinogate-api"),
		},

		Valkey: cache.Config{
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			TicketTTL: time.Duration(
				getEnvInt("VALKEY_TICKET_TTL_SEC", 60)) * time.Second,
		},

		Elasticsearch: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_TICKET_INDEX", "tickets"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		// The encode and decode paths must derive the key from the same
		// secret; QR_SECRET is the single canonical source for both.
		QR: qr.Config{
			Secret: getEnv("QR_SECRET", "dev-qr-secret"),
		},

		Email: external.EmailConfig{
			BaseURL: getEnv("EMAIL_SERVICE_URL", "http://localhost:8090"),
			Timeout: time.Duration(getEnvInt("EMAIL_TIMEOUT_SEC", 30)) * time.Second,
		},

		Payment: external.PaymentConfig{
			BaseURL: getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8091"),
			Timeout: time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv returns the value of an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
