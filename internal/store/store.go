// Package store provides the catalog and ledger persistence contracts and their GORM implementations.
package store

import (
	"context"
	"errors"

	"github.com/diewo77/iva-calculator/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateName is returned when a product name collides case-insensitively.
	ErrDuplicateName = errors.New("duplicate product name")
)

// Catalog stores products available for lookup-based calculations.
type Catalog interface {
	// Create persists p, assigning ID and CreatedAt. Returns ErrDuplicateName when the
	// store's unique name index rejects the row.
	Create(ctx context.Context, p *models.Product) error

	// List returns every product ordered by name.
	List(ctx context.Context) ([]models.Product, error)

	// Get returns the product with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Product, error)

	// FindByName returns the product whose name equals name ignoring case, or ErrNotFound.
	FindByName(ctx context.Context, name string) (*models.Product, error)

	// SearchByName returns products whose name contains query ignoring case,
	// oldest first.
	SearchByName(ctx context.Context, query string) ([]models.Product, error)
}

// Ledger is the append-only history of calculations.
type Ledger interface {
	// Append persists c with its line items and assigns ID and CreatedAt.
	Append(ctx context.Context, c *models.Calculation) error

	// List returns calculations newest first. limit <= 0 returns all of them.
	List(ctx context.Context, limit int) ([]models.Calculation, error)

	// Get returns the calculation with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Calculation, error)
}
