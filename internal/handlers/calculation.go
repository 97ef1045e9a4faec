package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diewo77/iva-calculator/httpx"
	"github.com/diewo77/iva-calculator/internal/apperr"
	"github.com/diewo77/iva-calculator/internal/services"
)

type CalculationHandler struct {
	svc *services.CalculationService
}

func NewCalculationHandler(svc *services.CalculationService) *CalculationHandler {
	return &CalculationHandler{svc: svc}
}

// Register mounts the calculation routes on mux.
func (h *CalculationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/calculate-iva", h.Calculate)
	mux.HandleFunc("POST /api/calculate-iva/{productId}", h.CalculateProduct)
	mux.HandleFunc("GET /api/calculations", h.List)
	mux.HandleFunc("GET /api/calculation/{id}", h.Get)
}

// calculateRequest carries one of the two request shapes. products wins when both are sent.
type calculateRequest struct {
	Products json.RawMessage `json:"products"`
	Name     *string         `json:"name"`
}

// Calculate handles POST /api/calculate-iva.
func (h *CalculationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	switch {
	case req.Products != nil:
		res, err := h.svc.CalculateItems(r.Context(), req.Products)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpx.Success(w, http.StatusOK, res)
	case req.Name != nil:
		res, err := h.svc.CalculateByName(r.Context(), *req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpx.Success(w, http.StatusOK, res)
	default:
		writeError(w, r, apperr.Validation("products or name required"))
	}
}

// CalculateProduct handles POST /api/calculate-iva/{productId}.
func (h *CalculationHandler) CalculateProduct(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CalculateByProductID(r.Context(), r.PathValue("productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, res)
}

// List handles GET /api/calculations. An optional ?limit=N keeps the N newest.
func (h *CalculationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, apperr.Validation("invalid limit"))
			return
		}
		limit = n
	}
	calcs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, calcs)
}

// Get handles GET /api/calculation/{id}.
func (h *CalculationHandler) Get(w http.ResponseWriter, r *http.Request) {
	calc, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, calc)
}
