package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/iva-calculator/internal/models"
	"gorm.io/gorm"
)

var _ Ledger = (*GormLedger)(nil)

// GormLedger implements Ledger on a *gorm.DB. It never updates or deletes rows.
type GormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLedger(db *gorm.DB, opts ...Option) *GormLedger {
	o := applyOptions(opts)
	return &GormLedger{db: db, now: o.now}
}

// Append stamps CreatedAt with the ledger clock, overriding any caller value.
func (l *GormLedger) Append(ctx context.Context, c *models.Calculation) error {
	c.CreatedAt = l.now()
	if err := l.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}
	return nil
}

func (l *GormLedger) List(ctx context.Context, limit int) ([]models.Calculation, error) {
	q := l.db.WithContext(ctx).
		Preload("Products", orderByPosition).
		Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var calcs []models.Calculation
	if err := q.Find(&calcs).Error; err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	return calcs, nil
}

func (l *GormLedger) Get(ctx context.Context, id string) (*models.Calculation, error) {
	var c models.Calculation
	err := l.db.WithContext(ctx).
		Preload("Products", orderByPosition).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculation: %w", err)
	}
	return &c, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}
