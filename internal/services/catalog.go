package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/diewo77/iva-calculator/internal/apperr"
	"github.com/diewo77/iva-calculator/internal/metrics"
	"github.com/diewo77/iva-calculator/internal/models"
	"github.com/diewo77/iva-calculator/internal/store"
	"github.com/diewo77/iva-calculator/validation"
)

const (
	msgProductFields    = "name, price and quantity required"
	msgQuantityNegative = "quantity must be non-negative"
	msgQuantityTooLarge = "quantity must not exceed 2147483647"
	msgProductExists    = "product already exists"
)

// NewProduct is a registration request. Price and quantity may be JSON numbers
// or numeric strings.
type NewProduct struct {
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
}

type CatalogService struct {
	catalog store.Catalog
	metrics *metrics.Metrics
}

// NewCatalogService wires the service. m may be nil.
func NewCatalogService(catalog store.Catalog, m *metrics.Metrics) *CatalogService {
	return &CatalogService{catalog: catalog, metrics: m}
}

// Register validates in and stores a new product. Quantity is truncated toward zero,
// and a quantity that truncates to zero (0, 0.5) counts as missing.
// Names are unique ignoring case; a collision is a conflict, including one that only
// the store's unique index catches.
func (s *CatalogService) Register(ctx context.Context, in NewProduct) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	price, priceOK := coerceNumber(in.Price)
	qty, qtyOK := coerceNumber(in.Quantity)

	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.Present("price", priceOK, v)
	validation.Present("quantity", qtyOK, v)
	if !v.Empty() {
		return nil, apperr.Validation(msgProductFields)
	}
	if err := checkPrice(price, v); err != nil {
		return nil, err
	}
	validation.NonNegativeFloat("quantity", qty, v)
	if !v.Empty() {
		return nil, apperr.Validation(msgQuantityNegative)
	}
	validation.MaxFloat("quantity", qty, models.MaxQuantity, v)
	if !v.Empty() {
		return nil, apperr.Validation(msgQuantityTooLarge)
	}
	quantity := int(qty)
	validation.NonZeroInt("quantity", quantity, v)
	if !v.Empty() {
		return nil, apperr.Validation(msgProductFields)
	}

	_, err := s.catalog.FindByName(ctx, name)
	if err == nil {
		return nil, apperr.Conflict(msgProductExists)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unexpected(err)
	}

	p := &models.Product{Name: name, Price: price, Quantity: quantity}
	if err := s.catalog.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, apperr.Conflict(msgProductExists)
		}
		return nil, apperr.Unexpected(err)
	}
	s.metrics.ProductRegistered()
	return p, nil
}

// List returns the catalog ordered by name.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return products, nil
}
