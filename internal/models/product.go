package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry available for lookup-based IVA calculations.
type Product struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	// NameKey is the normalized name; the unique index makes name collisions atomic.
	NameKey   string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Price     float64   `gorm:"not null" json:"price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

const (
	// MaxPrice bounds every price so that tax-inclusive totals stay finite and exact to the cent.
	MaxPrice = 1_000_000_000.0
	// MaxQuantity is the largest stock count a product may carry.
	MaxQuantity = math.MaxInt32
)

// NormalizeName returns the key used for case-insensitive name comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BeforeCreate assigns the id and name key.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Name = strings.TrimSpace(p.Name)
	p.NameKey = NormalizeName(p.Name)
	return nil
}

// ProductSummary is the product view embedded in calculation responses.
type ProductSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, Quantity: p.Quantity}
}
