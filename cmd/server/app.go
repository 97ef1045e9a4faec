package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/diewo77/iva-calculator/httpx"
	"github.com/diewo77/iva-calculator/internal/config"
	"github.com/diewo77/iva-calculator/internal/db"
	"github.com/diewo77/iva-calculator/internal/handlers"
	"github.com/diewo77/iva-calculator/internal/metrics"
	"github.com/diewo77/iva-calculator/internal/middleware"
	"github.com/diewo77/iva-calculator/internal/services"
	"github.com/diewo77/iva-calculator/internal/store"
	"github.com/diewo77/iva-calculator/view"
	"gorm.io/gorm"
)

// latestOnHome is how many ledger records the HTML page shows.
const latestOnHome = 10

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler

	catalog      *services.CatalogService
	calculations *services.CalculationService
	render       func(w io.Writer, name string, data any) error
}

// NewApp wires stores, services and handlers on conn. m may be nil to disable metrics.
func NewApp(conn *gorm.DB, cfg *config.Config, m *metrics.Metrics) *App {
	catalog := store.NewCachedCatalog(store.NewCatalog(conn), cfg.Cache.CatalogTTL)
	ledger := store.NewLedger(conn)

	app := &App{
		mux:          http.NewServeMux(),
		catalog:      services.NewCatalogService(catalog, m),
		calculations: services.NewCalculationService(catalog, ledger, m),
		render:       view.Render,
	}
	app.setupRoutes(conn, m)
	app.handler = middleware.Chain(app.mux,
		middleware.Logging,
		middleware.Recover,
		middleware.CORS(cfg.Server.FrontendURL),
		middleware.RateLimit(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)),
		middleware.Metrics(m),
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(conn *gorm.DB, m *metrics.Metrics) {
	handlers.NewHealthHandler(func(ctx context.Context) error {
		return db.Ping(ctx, conn)
	}).Register(a.mux)
	handlers.NewCalculationHandler(a.calculations).Register(a.mux)
	handlers.NewProductHandler(a.catalog).Register(a.mux)

	if m != nil {
		a.mux.Handle("GET /metrics", m.Handler())
	}
	a.mux.HandleFunc("GET /{$}", a.landingPage)
}

// landingPage renders the catalog and the latest calculations.
func (a *App) landingPage(w http.ResponseWriter, r *http.Request) {
	products, err := a.catalog.List(r.Context())
	if err != nil {
		a.pageError(w, r, err)
		return
	}
	calcs, err := a.calculations.History(r.Context(), latestOnHome)
	if err != nil {
		a.pageError(w, r, err)
		return
	}
	data := map[string]any{
		"Products":     products,
		"Calculations": calcs,
	}
	var buf bytes.Buffer
	if err := a.render(&buf, "index.html", data); err != nil {
		a.pageError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (a *App) pageError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Failed to load page data", "path", r.URL.Path, "error", err)
	httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
}
