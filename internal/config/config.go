package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// File storage Configuration
	Storage StorageConfig

	// Background job Configuration
	Jobs JobsConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port        string   // Listen port (without colon)
	CORSOrigins []string // Allowed browser origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// StorageConfig holds uploaded-file storage configuration
type StorageConfig struct {
	UploadDir string // Directory for timetables, exam schedules and resources
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	FeeScanSchedule string // Cron expression for the overdue-fee scan, empty = disabled
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// The Vite dev server origin is the only default; production deployments
	// set CORS_ORIGINS explicitly.
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "portal.sqlite"
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	// Overdue fee scan - defaults to 8am daily, explicit empty value disables
	feeScanSchedule, ok := os.LookupEnv("FEE_SCAN_SCHEDULE")
	if !ok {
		feeScanSchedule = "0 8 * * *"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		HTTP: HTTPConfig{
			Port:        port,
			CORSOrigins: splitOrigins(corsOrigins),
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Storage: StorageConfig{
			UploadDir: uploadDir,
		},
		Jobs: JobsConfig{
			FeeScanSchedule: feeScanSchedule,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

func splitOrigins(value string) []string {
	var origins []string
	for _, part := range strings.Split(value, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
