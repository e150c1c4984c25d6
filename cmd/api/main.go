package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/eckshelf/internal/config"
	"github.com/xelth-com/eckshelf/internal/database"
	"github.com/xelth-com/eckshelf/internal/handlers"
	"github.com/xelth-com/eckshelf/internal/imaging"
	"github.com/xelth-com/eckshelf/internal/layout"
	"github.com/xelth-com/eckshelf/internal/logging"
	"github.com/xelth-com/eckshelf/internal/metrics"
	"github.com/xelth-com/eckshelf/internal/repository"
	"github.com/xelth-com/eckshelf/internal/storage"
	"github.com/xelth-com/eckshelf/internal/utils"
	"github.com/xelth-com/eckshelf/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "eckshelf: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (.env, environment, then flags)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ApplyFlags(os.Args[0], os.Args[1:]); err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "eckshelf",
		Environment: cfg.NodeEnv,
	})

	// 2. Initialize database
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	// closed in the shutdown sequence below, or here on early return
	closeDB := func() {
		log.Info("closing database connection")
		if err := db.Close(); err != nil {
			log.Error("database close error", "error", err)
		}
	}

	log.Info("synchronizing database schema")
	if err := db.Migrate(); err != nil {
		closeDB()
		return fmt.Errorf("migration failed: %w", err)
	}

	// 3. Blob storage for images and thumbnails
	ctx := context.Background()
	blobs, err := storage.New(ctx, cfg.Blob)
	if err != nil {
		closeDB()
		return fmt.Errorf("failed to open blob storage: %w", err)
	}
	log.Info("blob storage ready", "driver", cfg.Blob.Driver)

	frontend, err := web.GetFileSystem(cfg.FrontendDir)
	if err != nil {
		closeDB()
		return fmt.Errorf("failed to load front-end: %w", err)
	}

	// 4. Set up HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Layout:         layout.NewStore(cfg.ConfigFile, log),
		SKUs:           repository.NewSKURepository(db.DB, blobs, log),
		Cargos:         repository.NewCargoRepository(db.DB),
		Snapshots:      repository.NewSnapshotRepository(db.DB),
		Images:         imaging.NewPipeline(blobs, log),
		Blobs:          blobs,
		Metrics:        metrics.New(metrics.DefaultConfig()),
		Frontend:       frontend,
		Logger:         log,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	})

	// 5. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "layout_file", cfg.ConfigFile, "db_driver", cfg.Database.Driver)
		for _, ip := range utils.LANAddresses() {
			log.Info("reachable on the local network", "url", "http://"+ip+":"+cfg.Port)
		}
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-shutdown:
		log.Info("received signal, shutting down gracefully", "signal", sig.String())
	case err := <-serverErr:
		closeDB()
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	// also stops embedded PostgreSQL
	closeDB()
	log.Info("shutdown complete")
	return nil
}
