package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/iva-calculator/internal/config"
	"github.com/diewo77/iva-calculator/internal/db"
	"github.com/diewo77/iva-calculator/internal/metrics"
	"github.com/diewo77/iva-calculator/pkg/logging"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
	migrationsDir   = flag.String("migrations", "migrations", "Directory holding the SQL migrations")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.App.LogLevel)

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	if *migrateOnlyFlag {
		cfg.App.Seed = false
		if err := db.Setup(dbConn, cfg, *migrationsDir); err != nil {
			fatal("Migration failed", err)
		}
		slog.Info("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		n, err := db.Seed(dbConn)
		if err != nil {
			fatal("Seeding failed", err)
		}
		slog.Info("Seeding completed successfully", "inserted", n)
		return
	}

	if err := db.Setup(dbConn, cfg, *migrationsDir); err != nil {
		fatal("Database setup failed", err)
	}

	appHandler := NewApp(dbConn, cfg, metrics.New())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	slog.Info("Server stopped gracefully")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
