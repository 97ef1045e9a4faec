package handlers

import (
	"net/http"

	"github.com/diewo77/iva-calculator/httpx"
	"github.com/diewo77/iva-calculator/internal/services"
)

type ProductHandler struct {
	svc *services.CatalogService
}

func NewProductHandler(svc *services.CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Register mounts the catalog routes on mux.
func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("POST /api/products", h.Create)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.NewProduct
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusCreated, product)
}
