package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/iva-calculator/internal/models"
	"gorm.io/gorm"
)

var _ Catalog = (*GormCatalog)(nil)

// GormCatalog implements Catalog on a *gorm.DB.
type GormCatalog struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCatalog(db *gorm.DB, opts ...Option) *GormCatalog {
	o := applyOptions(opts)
	return &GormCatalog{db: db, now: o.now}
}

func (c *GormCatalog) Create(ctx context.Context, p *models.Product) error {
	p.CreatedAt = c.now()
	if err := c.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (c *GormCatalog) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.db.WithContext(ctx).Order("name_key asc, id asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (c *GormCatalog) Get(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (c *GormCatalog) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Where("name_key = ?", models.NormalizeName(name)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return &p, nil
}

func (c *GormCatalog) SearchByName(ctx context.Context, query string) ([]models.Product, error) {
	like := "%" + escapeLike(models.NormalizeName(query)) + "%"
	var products []models.Product
	err := c.db.WithContext(ctx).
		Where(`name_key LIKE ? ESCAPE '\'`, like).
		Order("created_at asc, id asc").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
