// Package database opens the relational store holding SKUs, cargos and
// layout snapshots.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/eckshelf/internal/config"
	"github.com/xelth-com/eckshelf/internal/models"
)

// DB wraps gorm.DB and the bundled PostgreSQL process when one was started
type DB struct {
	*gorm.DB
	embedded *embeddedServer
	log      *slog.Logger
}

// useEmbedded reports whether the PostgreSQL settings point at the bundled
// instance: either explicitly, or localhost without a password.
func useEmbedded(cfg config.DatabaseConfig) bool {
	if cfg.Driver == config.DriverEmbedded {
		return true
	}
	return cfg.Driver == config.DriverPostgres && cfg.Host == "localhost" && cfg.Password == ""
}

func gormConfig(logSQL bool) *gorm.Config {
	level := logger.Silent
	if logSQL {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Connect opens the relational store selected by cfg.Driver. SQLite is the
// default and keeps everything in a single file next to the layout document.
func Connect(cfg config.DatabaseConfig, log *slog.Logger) (*DB, error) {
	gormCfg := gormConfig(cfg.LogSQL)
	if cfg.Driver == config.DriverSQLite {
		return connectSQLite(cfg.SQLitePath, gormCfg, log)
	}

	var embedded *embeddedServer
	if useEmbedded(cfg) {
		log.Info("database mode: embedded PostgreSQL")
		embedded = newEmbeddedServer(cfg, log)
		var err error
		if cfg, err = embedded.start(cfg); err != nil {
			return nil, err
		}
	} else {
		log.Info("database mode: external PostgreSQL", "host", cfg.Host, "port", cfg.Port)
	}

	db, err := connectPostgres(cfg, gormCfg)
	if err != nil {
		embedded.stop()
		return nil, err
	}
	log.Info("database connection established")
	return &DB{DB: db, embedded: embedded, log: log}, nil
}

func connectPostgres(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

func connectSQLite(path string, gormCfg *gorm.Config, log *slog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	// busy_timeout lets concurrent requests wait on the file lock instead of
	// failing with SQLITE_BUSY.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(0)"
	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database mode: SQLite", "path", path)
	return &DB{DB: db, log: log}, nil
}

// Close closes the connection pool and stops the embedded server
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	db.embedded.stop()
	return err
}

// Migrate synchronises the schema for every persisted model
func (db *DB) Migrate() error {
	return db.DB.AutoMigrate(
		&models.SKU{},
		&models.Cargo{},
		&models.ConfigSnapshot{},
	)
}
