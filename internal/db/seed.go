package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/iva-calculator/internal/models"
	"gorm.io/gorm"
)

// sampleCatalog is what a fresh development database starts with.
var sampleCatalog = []models.Product{
	{Name: "Milk", Price: 2.00, Quantity: 10},
	{Name: "Bread", Price: 1.50, Quantity: 25},
	{Name: "Eggs", Price: 3.00, Quantity: 12},
	{Name: "Cheese", Price: 4.50, Quantity: 8},
	{Name: "Butter", Price: 2.50, Quantity: 15},
}

// Seed inserts the sample catalog, skipping names that already exist. It returns the
// number of products inserted and is safe to run repeatedly.
func Seed(conn *gorm.DB) (int, error) {
	inserted := 0
	for _, p := range sampleCatalog {
		var existing models.Product
		err := conn.Where("name_key = ?", models.NormalizeName(p.Name)).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, fmt.Errorf("seed lookup %q: %w", p.Name, err)
		}
		product := p
		if err := conn.Create(&product).Error; err != nil {
			return inserted, fmt.Errorf("seed insert %q: %w", p.Name, err)
		}
		inserted++
	}
	return inserted, nil
}
