package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CategoriesTTL = 24 * time.Hour
	ProductsTTL   = time.Hour

	FeaturedLimit = 4
	RelatedLimit  = 4
	PageSize      = 12

	cachePrefix = "catalog:"
)

var (
	ErrCategoryNotFound = repository.ErrCategoryNotFound
	ErrProductNotFound  = repository.ErrProductNotFound
)

// CatalogService defines the read side of the catalog
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]*domain.Product, error)
	RelatedProducts(ctx context.Context, categoryID string) ([]*domain.Product, error)
	ProductsByCategory(ctx context.Context, categoryID, afterID string) ([]*domain.Product, error)
	Invalidate(ctx context.Context) error
}

type catalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      *redis.Client
	logger     *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService. A nil cache
// disables caching.
func NewCatalogService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	cache *redis.Client,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		categories: categories,
		products:   products,
		cache:      cache,
		logger:     logger,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return cached(ctx, s, "categories", CategoriesTTL, func() ([]*domain.Category, error) {
		return s.categories.List(ctx)
	})
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return cached(ctx, s, "category:"+id, ProductsTTL, func() (*domain.Category, error) {
		return s.categories.FindByID(ctx, id)
	})
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return cached(ctx, s, "product:"+id, ProductsTTL, func() (*domain.Product, error) {
		return s.products.FindByID(ctx, id)
	})
}

// ListProducts returns the full catalog, newest first
func (s *catalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return cached(ctx, s, "products:all", ProductsTTL, func() ([]*domain.Product, error) {
		return s.products.List(ctx, repository.ProductFilter{SortBy: "createdAt", SortOrder: repository.SortOrderDesc})
	})
}

func (s *catalogService) FeaturedProducts(ctx context.Context) ([]*domain.Product, error) {
	return cached(ctx, s, "products:featured", ProductsTTL, func() ([]*domain.Product, error) {
		return s.products.List(ctx, repository.ProductFilter{Limit: FeaturedLimit})
	})
}

func (s *catalogService) RelatedProducts(ctx context.Context, categoryID string) ([]*domain.Product, error) {
	return cached(ctx, s, "products:related:"+categoryID, ProductsTTL, func() ([]*domain.Product, error) {
		return s.products.List(ctx, repository.ProductFilter{CategoryID: categoryID, Limit: RelatedLimit})
	})
}

// ProductsByCategory returns one page of a category, most expensive first.
// It is never cached. A cursor that no longer exists restarts from the
// first page.
func (s *catalogService) ProductsByCategory(ctx context.Context, categoryID, afterID string) ([]*domain.Product, error) {
	filter := repository.ProductFilter{
		CategoryID: categoryID,
		SortBy:     "price",
		SortOrder:  repository.SortOrderDesc,
		Limit:      PageSize,
		After:      afterID,
	}

	products, err := s.products.List(ctx, filter)
	if errors.Is(err, repository.ErrProductNotFound) && afterID != "" {
		s.logger.Debug("Stale pagination cursor", zap.String("after", afterID))
		filter.After = ""
		products, err = s.products.List(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to page category %s: %w", categoryID, err)
	}
	return products, nil
}

// Invalidate drops every cached catalog entry
func (s *catalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	var keys []string
	iter := s.cache.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	s.logger.Info("Catalog cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

// cached reads key from Redis or loads and stores it. Redis failures are
// logged and the loader result is served.
func cached[T any](ctx context.Context, s *catalogService, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if s.cache == nil {
		return load()
	}

	key = cachePrefix + key

	raw, err := s.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		s.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := s.cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}

	return v, nil
}
