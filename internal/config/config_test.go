package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_DSN", "CATALOG_CACHE_TTL", "RATE_LIMIT_RPS", "FRONTEND_URL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Server.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Server.Port)
	}
	if cfg.Server.FrontendURL != "http://localhost:3001" {
		t.Errorf("FrontendURL = %q", cfg.Server.FrontendURL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Cache.CatalogTTL != 30*time.Second {
		t.Errorf("CatalogTTL = %v, want 30s", cfg.Cache.CatalogTTL)
	}
	if cfg.RateLimit.RPS != 10 {
		t.Errorf("RPS = %v, want 10", cfg.RateLimit.RPS)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("MIGRATIONS", "yes")
	t.Setenv("CATALOG_CACHE_TTL", "2m")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()
	if cfg.Server.Port != "8081" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if !cfg.Database.IsSQLite() {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.SQLitePath != "/tmp/x.db" {
		t.Errorf("SQLitePath = %q", cfg.Database.SQLitePath)
	}
	if !cfg.App.Migrations {
		t.Errorf("expected migrations enabled")
	}
	if cfg.Cache.CatalogTTL != 2*time.Minute {
		t.Errorf("CatalogTTL = %v", cfg.Cache.CatalogTTL)
	}
	if cfg.RateLimit.RPS != 0.5 {
		t.Errorf("RPS = %v", cfg.RateLimit.RPS)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("invalid DB_PORT should fall back to 5432, got %d", cfg.Database.Port)
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "iva", SSLMode: "disable"}
	if got, want := d.DSN(), "host=db port=5432 user=u password=p dbname=iva sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got, want := d.URL(), "postgres://u:p@db:5432/iva?sslmode=disable"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	d.RawDSN = "postgres://x@y/z"
	if d.DSN() != "postgres://x@y/z" {
		t.Errorf("RawDSN should take precedence")
	}
}
