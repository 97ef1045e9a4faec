package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/iva-calculator/httpx"
)

const pingTimeout = 2 * time.Second

type HealthHandler struct {
	ping func(context.Context) error
}

// NewHealthHandler reports the store as down whenever ping fails. A nil ping skips the check.
func NewHealthHandler(ping func(context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Check)
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.ping == nil {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
