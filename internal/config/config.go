package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Database
	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Security
	JWTSecret string

	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Rate Limiting
	RateLimitPerUser    int
	RateLimitPerIP      int
	RateLimitWindowSecs int

	// Matchmaking
	QueueLimit int

	// Result voting
	VotingGraceHours      int
	ReportsPerParticipant int
	ResultSweepMinutes    int

	// Result export bucket (optional)
	ExportBucket          string
	ExportEndpoint        string
	ExportRegion          string
	ExportAccessKeyID     string
	ExportSecretAccessKey string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "matchday"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "matchday_db"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerUser:    getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitPerIP:      getEnvInt("RATE_LIMIT_PER_IP", 100),
		RateLimitWindowSecs: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),

		QueueLimit: getEnvInt("QUEUE_LIMIT", 1000),

		VotingGraceHours:      getEnvInt("VOTING_GRACE_HOURS", 24),
		ReportsPerParticipant: getEnvInt("REPORTS_PER_PARTICIPANT", 1),
		ResultSweepMinutes:    getEnvInt("RESULT_SWEEP_INTERVAL_MINUTES", 10),

		ExportBucket:          getEnv("EXPORT_BUCKET", ""),
		ExportEndpoint:        getEnv("EXPORT_ENDPOINT", ""),
		ExportRegion:          getEnv("EXPORT_REGION", "auto"),
		ExportAccessKeyID:     getEnv("EXPORT_ACCESS_KEY_ID", ""),
		ExportSecretAccessKey: getEnv("EXPORT_SECRET_ACCESS_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.QueueLimit <= 0 {
		return fmt.Errorf("QUEUE_LIMIT must be positive")
	}
	if c.VotingGraceHours <= 0 {
		return fmt.Errorf("VOTING_GRACE_HOURS must be positive")
	}
	if c.ReportsPerParticipant <= 0 {
		return fmt.Errorf("REPORTS_PER_PARTICIPANT must be positive")
	}
	if c.ResultSweepMinutes <= 0 {
		return fmt.Errorf("RESULT_SWEEP_INTERVAL_MINUTES must be positive")
	}
	if c.ExportBucket != "" && (c.ExportAccessKeyID == "" || c.ExportSecretAccessKey == "") {
		return fmt.Errorf("EXPORT_ACCESS_KEY_ID and EXPORT_SECRET_ACCESS_KEY are required with EXPORT_BUCKET")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.StoreDriver != StoreDriverPostgres {
		return fmt.Errorf("STORE_DRIVER must be %q in production", StoreDriverPostgres)
	}
	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetVotingGrace() time.Duration {
	return time.Duration(c.VotingGraceHours) * time.Hour
}

func (c *Config) GetRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSecs) * time.Second
}

func (c *Config) GetResultSweepInterval() time.Duration {
	return time.Duration(c.ResultSweepMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
