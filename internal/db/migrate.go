// Package db opens the GORM connection, applies the schema and seeds sample data.
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/diewo77/iva-calculator/internal/config"
	"github.com/diewo77/iva-calculator/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Connect opens the configured store, retrying while Postgres starts, and pings it.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var conn *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		slog.Warn("Retrying DB connection", "attempt", i+1, "error", err)
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if err := Ping(context.Background(), conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.IsSQLite() {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		slog.Info("Using SQLite store", "path", cfg.SQLitePath)
		return sqlite.Open(cfg.SQLitePath), nil
	}
	if cfg.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	dsn := NormalizeDSN(cfg.DSN())
	if dsn == "" {
		return nil, errors.New("database DSN is empty, check DATABASE_DSN or DB_* settings")
	}
	slog.Info("Using Postgres store", "dsn", MaskDSN(dsn))
	return postgres.Open(dsn), nil
}

// Ping runs a trivial query to confirm the store answers.
func Ping(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{&models.Product{}, &models.Calculation{}, &models.LineItem{}}
}

// Migrate applies the schema with GORM AutoMigrate and checks the core tables exist.
func Migrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"products", "calculations", "calculation_items"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the versioned SQL files in dir with golang-migrate.
// Only Postgres is supported; dsn may be in either form.
func RunSQLMigrations(dir, dsn string) error {
	m, err := migrate.New("file://"+filepath.ToSlash(dir), ToURLDSN(NormalizeDSN(dsn)))
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Setup applies the schema the way cfg asks: SQL migrations when enabled on Postgres,
// AutoMigrate otherwise. Seeds the sample catalog when requested.
func Setup(conn *gorm.DB, cfg *config.Config, migrationsDir string) error {
	if cfg.App.Migrations && !cfg.Database.IsSQLite() {
		slog.Info("Running SQL migrations", "dir", migrationsDir)
		if err := RunSQLMigrations(migrationsDir, cfg.Database.DSN()); err != nil {
			return err
		}
	} else if err := Migrate(conn); err != nil {
		return err
	}
	if cfg.App.Seed {
		n, err := Seed(conn)
		if err != nil {
			return err
		}
		slog.Info("Seeded catalog", "inserted", n)
	}
	return nil
}
