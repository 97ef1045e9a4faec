// Package services holds the IVA calculation and catalog workflows behind the HTTP handlers.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/diewo77/iva-calculator/internal/apperr"
	"github.com/diewo77/iva-calculator/internal/metrics"
	"github.com/diewo77/iva-calculator/internal/models"
	"github.com/diewo77/iva-calculator/internal/store"
	"github.com/diewo77/iva-calculator/internal/tax"
	"github.com/diewo77/iva-calculator/validation"
)

const (
	msgExactlyFive     = "exactly 5 products required"
	msgNameAndPrice    = "name and price required"
	msgPriceNegative   = "price must be non-negative"
	msgPriceTooLarge   = "price must not exceed 1000000000"
	msgNameRequired    = "name required"
	msgProductNotFound = "product not found"
	msgCalcNotFound    = "calculation not found"
)

// ItemsResult is returned for a five-item calculation.
type ItemsResult struct {
	Products   []models.LineItem `json:"products"`
	TotalPrice float64           `json:"totalPrice"`
	IVARate    float64           `json:"ivaRate"`
	IVAAmount  float64           `json:"ivaAmount"`
	FinalPrice float64           `json:"finalPrice"`
	SavedID    string            `json:"savedId"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ProductTax is the calculation part of a ProductResult.
type ProductTax struct {
	IVARate      float64 `json:"ivaRate"`
	IVAAmount    float64 `json:"ivaAmount"`
	PriceWithIVA float64 `json:"priceWithIVA"`
}

// ProductResult is returned for a catalog lookup calculation.
type ProductResult struct {
	Product     models.ProductSummary `json:"product"`
	Calculation ProductTax            `json:"calculation"`
	SavedID     string                `json:"savedId"`
	CreatedAt   time.Time             `json:"createdAt"`
}

type CalculationService struct {
	catalog store.Catalog
	ledger  store.Ledger
	metrics *metrics.Metrics
}

// NewCalculationService wires the service. m may be nil.
func NewCalculationService(catalog store.Catalog, ledger store.Ledger, m *metrics.Metrics) *CalculationService {
	return &CalculationService{catalog: catalog, ledger: ledger, metrics: m}
}

// CalculateItems validates raw, a JSON array of exactly five {name, price} objects,
// applies the 21% rate to the summed prices and appends the result to the ledger.
func (s *CalculationService) CalculateItems(ctx context.Context, raw json.RawMessage) (*ItemsResult, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) != models.ItemsPerCalculation {
		return nil, apperr.Validation(msgExactlyFive)
	}

	items := make([]models.LineItem, 0, len(entries))
	prices := make([]float64, 0, len(entries))
	for _, entry := range entries {
		item, err := parseLineItem(entry)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		prices = append(prices, item.Price)
	}

	total := tax.Sum(prices...)
	res := tax.ComputeTax(total, tax.RateItems)
	calc := &models.Calculation{
		Kind:       models.KindItems,
		Products:   items,
		TotalPrice: &total,
		FinalPrice: &res.Total,
		IVARate:    tax.RateItems,
		IVAAmount:  res.Amount,
	}
	if err := s.ledger.Append(ctx, calc); err != nil {
		return nil, apperr.Unexpected(err)
	}
	s.metrics.CalculationRecorded(string(models.KindItems))

	return &ItemsResult{
		Products:   calc.Products,
		TotalPrice: total,
		IVARate:    calc.IVARate,
		IVAAmount:  calc.IVAAmount,
		FinalPrice: res.Total,
		SavedID:    calc.ID,
		CreatedAt:  calc.CreatedAt,
	}, nil
}

func parseLineItem(entry json.RawMessage) (models.LineItem, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return models.LineItem{}, apperr.Validation(msgNameAndPrice)
	}
	name := coerceString(fields["name"])
	price, ok := coerceNumber(fields["price"])

	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.Present("price", ok, v)
	if !v.Empty() {
		return models.LineItem{}, apperr.Validation(msgNameAndPrice)
	}
	if err := checkPrice(price, v); err != nil {
		return models.LineItem{}, err
	}
	return models.LineItem{Name: name, Price: price}, nil
}

// checkPrice rejects negative prices and prices above models.MaxPrice.
func checkPrice(price float64, v validation.Violations) error {
	validation.NonNegativeFloat("price", price, v)
	if !v.Empty() {
		return apperr.Validation(msgPriceNegative)
	}
	validation.MaxFloat("price", price, models.MaxPrice, v)
	if !v.Empty() {
		return apperr.Validation(msgPriceTooLarge)
	}
	return nil
}

// CalculateByName resolves name against the catalog and applies the 15% rate.
// An exact case-insensitive match wins. Otherwise the oldest product whose name
// contains name is used, and a warning is logged when the match was ambiguous.
func (s *CalculationService) CalculateByName(ctx context.Context, name string) (*ProductResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(msgNameRequired)
	}
	p, err := s.resolveName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.calculateProduct(ctx, p)
}

func (s *CalculationService) resolveName(ctx context.Context, name string) (*models.Product, error) {
	p, err := s.catalog.FindByName(ctx, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unexpected(err)
	}

	matches, err := s.catalog.SearchByName(ctx, name)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	if len(matches) == 0 {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	if len(matches) > 1 {
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m.Name)
		}
		slog.Warn("Ambiguous product name, using oldest match",
			"query", name,
			"matches", len(matches),
			"candidates", candidates,
			"chosen_id", matches[0].ID,
		)
	}
	return &matches[0], nil
}

// CalculateByProductID applies the 15% rate to the catalog product with the given id.
func (s *CalculationService) CalculateByProductID(ctx context.Context, id string) (*ProductResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	p, err := s.catalog.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return s.calculateProduct(ctx, p)
}

func (s *CalculationService) calculateProduct(ctx context.Context, p *models.Product) (*ProductResult, error) {
	res := tax.ComputeTax(p.Price, tax.RateProduct)
	productID := p.ID
	price := p.Price
	calc := &models.Calculation{
		Kind:         models.KindProduct,
		ProductID:    &productID,
		ProductName:  p.Name,
		ProductPrice: &price,
		PriceWithIVA: &res.Total,
		IVARate:      tax.RateProduct,
		IVAAmount:    res.Amount,
	}
	if err := s.ledger.Append(ctx, calc); err != nil {
		return nil, apperr.Unexpected(err)
	}
	s.metrics.CalculationRecorded(string(models.KindProduct))

	return &ProductResult{
		Product: p.Summary(),
		Calculation: ProductTax{
			IVARate:      calc.IVARate,
			IVAAmount:    calc.IVAAmount,
			PriceWithIVA: res.Total,
		},
		SavedID:   calc.ID,
		CreatedAt: calc.CreatedAt,
	}, nil
}

// History returns the ledger newest first. limit <= 0 returns every record.
func (s *CalculationService) History(ctx context.Context, limit int) ([]models.Calculation, error) {
	calcs, err := s.ledger.List(ctx, limit)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return calcs, nil
}

// Get returns one ledger record.
func (s *CalculationService) Get(ctx context.Context, id string) (*models.Calculation, error) {
	c, err := s.ledger.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgCalcNotFound)
	}
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return c, nil
}
