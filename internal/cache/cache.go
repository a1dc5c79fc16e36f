package cache

import (
	"context"
	"errors"

	"github.com/Nzd00905/s-shop/internal/domain"
)

// CatalogCache is a read-through cache for product documents. Stock
// values served from cache may lag behind checkout decrements; entries
// expire on TTL and are dropped on catalog writes.
type CatalogCache interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	GetProductList(ctx context.Context) ([]domain.Product, error)
	SetProductList(ctx context.Context, products []domain.Product) error

	// Invalidate drops the product's entry and the list entry.
	Invalidate(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")
