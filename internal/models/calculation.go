package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrImmutableRecord is returned by the hooks guarding ledger rows.
var ErrImmutableRecord = errors.New("calculation records are immutable")

// CalculationKind distinguishes the two request shapes stored in the ledger.
type CalculationKind string

const (
	// KindItems is a calculation over exactly five named line items.
	KindItems CalculationKind = "items"
	// KindProduct is a calculation over a catalog product's price.
	KindProduct CalculationKind = "product"
)

// ItemsPerCalculation is the number of line items a KindItems calculation requires.
const ItemsPerCalculation = 5

// Calculation is one completed IVA computation. Fields specific to one kind are nil
// (or empty) for the other and omitted from JSON.
type Calculation struct {
	ID   string          `gorm:"primaryKey;size:36" json:"id"`
	Kind CalculationKind `gorm:"size:20;not null;index" json:"kind"`

	// items
	Products   []LineItem `gorm:"foreignKey:CalculationID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
	TotalPrice *float64   `json:"totalPrice,omitempty"`
	FinalPrice *float64   `json:"finalPrice,omitempty"`

	// product. ProductID is a weak reference: no foreign key, the row survives product removal.
	ProductID    *string  `gorm:"size:36;index" json:"productId,omitempty"`
	ProductName  string   `gorm:"size:255" json:"productName,omitempty"`
	ProductPrice *float64 `json:"productPrice,omitempty"`
	PriceWithIVA *float64 `gorm:"column:price_with_iva" json:"priceWithIVA,omitempty"`

	IVARate   float64   `gorm:"column:iva_rate;not null" json:"ivaRate"`
	IVAAmount float64   `gorm:"column:iva_amount;not null" json:"ivaAmount"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

// LineItem is one {name, price} pair of a KindItems calculation.
type LineItem struct {
	ID            uint    `gorm:"primaryKey" json:"-"`
	CalculationID string  `gorm:"size:36;not null;index" json:"-"`
	Position      int     `gorm:"not null" json:"-"`
	Name          string  `gorm:"size:255;not null" json:"name"`
	Price         float64 `gorm:"not null" json:"price"`
}

func (LineItem) TableName() string { return "calculation_items" }

// BeforeCreate assigns the id and item positions.
func (c *Calculation) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range c.Products {
		c.Products[i].Position = i
	}
	return nil
}

func (c *Calculation) BeforeUpdate(_ *gorm.DB) error { return ErrImmutableRecord }

func (c *Calculation) BeforeDelete(_ *gorm.DB) error { return ErrImmutableRecord }

func (li *LineItem) BeforeUpdate(_ *gorm.DB) error { return ErrImmutableRecord }

func (li *LineItem) BeforeDelete(_ *gorm.DB) error { return ErrImmutableRecord }

// Basis returns the price the tax was computed on.
func (c *Calculation) Basis() float64 {
	switch c.Kind {
	case KindItems:
		if c.TotalPrice != nil {
			return *c.TotalPrice
		}
	case KindProduct:
		if c.ProductPrice != nil {
			return *c.ProductPrice
		}
	}
	return 0
}

// Final returns the tax-inclusive amount regardless of kind.
func (c *Calculation) Final() float64 {
	if c.FinalPrice != nil {
		return *c.FinalPrice
	}
	if c.PriceWithIVA != nil {
		return *c.PriceWithIVA
	}
	return 0
}

// Label is a short human description used by the HTML view.
func (c *Calculation) Label() string {
	if c.Kind == KindProduct {
		return c.ProductName
	}
	names := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
