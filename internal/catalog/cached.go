package catalog

import (
	"context"
	"errors"
	"log"

	"github.com/Nzd00905/s-shop/internal/cache"
	"github.com/Nzd00905/s-shop/internal/domain"
)

// CachedRepository serves catalog reads through a cache and drops
// entries on writes. Cache failures degrade to the underlying
// repository instead of failing the request.
type CachedRepository struct {
	repo  Repository
	cache cache.CatalogCache
}

func NewCachedRepository(repo Repository, c cache.CatalogCache) *CachedRepository {
	return &CachedRepository{repo: repo, cache: c}
}

func (r *CachedRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := r.cache.GetProductList(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("product list cache read failed: %v", err)
	}

	products, err = r.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if cacheErr := r.cache.SetProductList(ctx, products); cacheErr != nil {
		log.Printf("product list cache write failed: %v", cacheErr)
	}
	return products, nil
}

func (r *CachedRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := r.cache.GetProduct(ctx, id)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("product cache read failed: %v", err)
	}

	product, err = r.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if cacheErr := r.cache.SetProduct(ctx, product); cacheErr != nil {
		log.Printf("product cache write failed: %v", cacheErr)
	}
	return product, nil
}

func (r *CachedRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := r.repo.CreateProduct(ctx, product); err != nil {
		return err
	}
	return r.cache.Invalidate(ctx, product.ID)
}

func (r *CachedRepository) ReplaceProduct(ctx context.Context, product *domain.Product) error {
	if err := r.repo.ReplaceProduct(ctx, product); err != nil {
		return err
	}
	return r.cache.Invalidate(ctx, product.ID)
}

func (r *CachedRepository) DeleteProduct(ctx context.Context, id string) error {
	if err := r.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	return r.cache.Invalidate(ctx, id)
}
