package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverEmbedded = "embedded"
)

// Blob drivers
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
)

// Config holds all application configuration
type Config struct {
	NodeEnv     string
	Port        string
	ConfigFile  string // warehouse layout document
	FrontendDir string
	MaxUploadMB int64
	Database    DatabaseConfig
	Blob        BlobConfig
	Log         LogConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       string
	Username   string
	Password   string
	Database   string
	LogSQL     bool

	// Bundled PostgreSQL, used by the embedded driver
	EmbeddedDir  string
	EmbeddedPort int64
}

// BlobConfig selects where uploaded images and thumbnails live
type BlobConfig struct {
	Driver      string
	UploadDir   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		NodeEnv:     getEnv("NODE_ENV", "development"),
		Port:        getEnv("PORT", "5002"),
		ConfigFile:  getEnv("CONFIG_FILE", "warehouse_config.json"),
		FrontendDir: os.Getenv("FRONTEND_DIR"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 32),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			SQLitePath: getEnv("SQLITE_PATH", "sku_data.db"),
			Host:       getEnv("PG_HOST", "localhost"),
			Port:       getEnv("PG_PORT", "5432"),
			Username:   getEnv("PG_USERNAME", "postgres"),
			Password:   os.Getenv("PG_PASSWORD"),
			Database:   getEnv("PG_DATABASE", "eckshelf"),
			LogSQL:     getEnv("DB_LOG_SQL", "false") == "true",

			EmbeddedDir:  getEnv("PG_EMBEDDED_DIR", "db_data"),
			EmbeddedPort: getEnvInt("PG_EMBEDDED_PORT", 5433),
		},
		Blob: BlobConfig{
			Driver:      strings.ToLower(getEnv("BLOB_DRIVER", BlobFilesystem)),
			UploadDir:   getEnv("UPLOAD_DIR", "static/uploads"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Region:    getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3PathStyle: strings.EqualFold(os.Getenv("S3_PATH_STYLE"), "true"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks driver selections and their required settings
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
	case DriverEmbedded:
		if c.Database.EmbeddedPort <= 0 || c.Database.EmbeddedPort > 65535 {
			return fmt.Errorf("PG_EMBEDDED_PORT must be a TCP port")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Blob.Driver {
	case BlobFilesystem:
		if c.Blob.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for the fs blob driver")
		}
	case BlobS3:
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}
