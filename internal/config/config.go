package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                   string
	Port                   string
	User                   string
	Password               string
	Name                   string
	SSLMode                string
	InstanceConnectionName string // Cloud SQL unix socket, production only
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreDriver string
	Database    DatabaseConfig
	SQLitePath  string

	JWTSecret                string
	DisableWebhookValidation bool
	LineAPIEndpoint          string

	AuditInterval time.Duration
}

// LoadEnvFiles loads .env for local development. Production (Cloud Run)
// provides real environment variables and skips this.
func LoadEnvFiles() error {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return godotenv.Load("environments/.env.development")
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		Database: DatabaseConfig{
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnv("DB_PORT", "5432"),
			User:                   getEnv("DB_USER", "postgres"),
			Password:               os.Getenv("DB_PASS"),
			Name:                   getEnv("DB_NAME", "lineflow"),
			SSLMode:                getEnv("DB_SSLMODE", "disable"),
			InstanceConnectionName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		},
		SQLitePath:               getEnv("SQLITE_PATH", "lineflow.db"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		DisableWebhookValidation: os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true",
		LineAPIEndpoint:          os.Getenv("LINE_API_ENDPOINT"),
		AuditInterval:            time.Hour,
	}

	// USE_MEMORY_STORE predates STORE_DRIVER and still wins when set.
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		cfg.StoreDriver = StoreDriverMemory
	}

	if v := os.Getenv("AUDIT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AuditInterval = d
		}
	}

	return cfg
}

// ErrMissingJWTSecret is returned by Validate when the admin API would have
// no key to verify tokens with.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside development")

// Validate reports settings the service must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return ErrMissingJWTSecret
	}
	return nil
}

// IsDevelopment reports whether the service runs locally.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SkipWebhookValidation reports whether LINE signatures are not checked,
// e.g. behind ngrok during development.
func (c Config) SkipWebhookValidation() bool {
	return c.IsDevelopment() || c.DisableWebhookValidation
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
