package db_test

import (
	"context"
	"testing"

	"github.com/diewo77/iva-calculator/internal/db"
	"github.com/diewo77/iva-calculator/internal/db/dbtest"
	"github.com/diewo77/iva-calculator/internal/models"
)

func TestSeedIdempotent(t *testing.T) {
	conn := dbtest.Open(t)

	first, err := db.Seed(conn)
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.Seed(conn)
	if err != nil {
		t.Fatal(err)
	}
	if first != 5 {
		t.Fatalf("expected 5 products inserted on first run, got %d", first)
	}
	if second != 0 {
		t.Fatalf("expected no inserts on second run, got %d", second)
	}

	var count int64
	conn.Model(&models.Product{}).Count(&count)
	if count != 5 {
		t.Fatalf("expected 5 products, got %d", count)
	}
	var milk models.Product
	if err := conn.Where("name_key = ?", "milk").First(&milk).Error; err != nil {
		t.Fatalf("milk not seeded: %v", err)
	}
	if milk.ID == "" || milk.CreatedAt.IsZero() {
		t.Fatalf("expected id and createdAt to be assigned, got %+v", milk)
	}
}

func TestMigrateCreatesTables(t *testing.T) {
	conn := dbtest.Open(t)
	for _, table := range []string{"products", "calculations", "calculation_items"} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}
	if err := db.Ping(context.Background(), conn); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
