package store

import (
	"context"
	"sync"
	"time"

	"github.com/diewo77/iva-calculator/internal/models"
	"github.com/patrickmn/go-cache"
)

const productListKey = "products:all"

var _ Catalog = (*CachedCatalog)(nil)

// CachedCatalog wraps a Catalog and caches List results for a TTL.
// Create invalidates the cached list. Lookups always hit the inner catalog.
type CachedCatalog struct {
	inner Catalog
	cache *cache.Cache
	// mu guards generation, which is bumped on every invalidation. A List only
	// caches what it read if no invalidation happened meanwhile.
	mu         sync.Mutex
	generation uint64
}

// NewCachedCatalog wraps inner. A ttl <= 0 disables expiry-based refresh only;
// the list is still dropped on every Create.
func NewCachedCatalog(inner Catalog, ttl time.Duration) *CachedCatalog {
	exp := ttl
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	return &CachedCatalog{
		inner: inner,
		cache: cache.New(exp, 2*exp),
	}
}

func (c *CachedCatalog) Create(ctx context.Context, p *models.Product) error {
	err := c.inner.Create(ctx, p)
	// A failed insert may still race with another writer, so always drop the list.
	c.Invalidate()
	return err
}

func (c *CachedCatalog) List(ctx context.Context) ([]models.Product, error) {
	if v, ok := c.cache.Get(productListKey); ok {
		return cloneProducts(v.([]models.Product)), nil
	}
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	products, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.cache.SetDefault(productListKey, cloneProducts(products))
	}
	c.mu.Unlock()
	return products, nil
}

func (c *CachedCatalog) Get(ctx context.Context, id string) (*models.Product, error) {
	return c.inner.Get(ctx, id)
}

func (c *CachedCatalog) FindByName(ctx context.Context, name string) (*models.Product, error) {
	return c.inner.FindByName(ctx, name)
}

func (c *CachedCatalog) SearchByName(ctx context.Context, query string) ([]models.Product, error) {
	return c.inner.SearchByName(ctx, query)
}

// Invalidate drops the cached product list.
func (c *CachedCatalog) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.cache.Delete(productListKey)
	c.mu.Unlock()
}

func cloneProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	copy(out, in)
	return out
}
