// Package seed clears the catalog collections and writes a seed catalog.
package seed

import (
	"context"
	"fmt"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/store"

	"go.uber.org/zap"
)

// Report summarises a seeding run.
type Report struct {
	CategoriesDeleted int
	ProductsDeleted   int
	// CategoryIDs maps category slug to the generated category ID.
	CategoryIDs map[string]string
	// ProductIDs maps product slug to the generated product ID.
	ProductIDs map[string]string
}

// Seeder replaces the stored catalog.
type Seeder struct {
	store     store.DocumentStore
	logger    *zap.Logger
	batchSize int
}

// NewSeeder creates a Seeder. A non-positive batch size selects
// DefaultBatchSize.
func NewSeeder(st store.DocumentStore, logger *zap.Logger, batchSize int) *Seeder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Seeder{store: st, logger: logger, batchSize: batchSize}
}

// Run deletes both collections and writes the catalog. Writes are not
// transactional: an error leaves the collections partially cleaned or
// partially seeded, and a rerun starts over.
func (s *Seeder) Run(ctx context.Context, catalog *domain.Catalog) (*Report, error) {
	report := &Report{}

	if err := s.Clean(ctx, report); err != nil {
		return report, err
	}

	if err := s.Populate(ctx, catalog, report); err != nil {
		return report, err
	}

	s.logger.Info("Catalog updated",
		zap.Int("categories", len(report.CategoryIDs)),
		zap.Int("products", len(report.ProductIDs)),
	)
	return report, nil
}

// Clean empties the categories and products collections.
func (s *Seeder) Clean(ctx context.Context, report *Report) error {
	s.logger.Info("Cleaning old catalog", zap.Int("batch_size", s.batchSize))

	stats, err := DeleteCollection(ctx, s.store, domain.CategoriesCollection, s.batchSize)
	report.CategoriesDeleted = stats.Deleted
	if err != nil {
		return err
	}
	s.logger.Debug("Collection cleaned",
		zap.String("collection", domain.CategoriesCollection),
		zap.Int("deleted", stats.Deleted),
		zap.Int("rounds", stats.Rounds),
	)

	stats, err = DeleteCollection(ctx, s.store, domain.ProductsCollection, s.batchSize)
	report.ProductsDeleted = stats.Deleted
	if err != nil {
		return err
	}
	s.logger.Debug("Collection cleaned",
		zap.String("collection", domain.ProductsCollection),
		zap.Int("deleted", stats.Deleted),
		zap.Int("rounds", stats.Rounds),
	)

	return nil
}

// Populate writes every category in order, each followed by its products.
func (s *Seeder) Populate(ctx context.Context, catalog *domain.Catalog, report *Report) error {
	s.logger.Info("Uploading catalog", zap.Int("categories", len(catalog.Categories)))

	if report.CategoryIDs == nil {
		report.CategoryIDs = make(map[string]string, len(catalog.Categories))
	}
	if report.ProductIDs == nil {
		report.ProductIDs = make(map[string]string, catalog.ProductCount())
	}

	for _, cat := range catalog.Categories {
		categoryID, err := s.store.Create(ctx, domain.CategoriesCollection, CategoryFields(cat))
		if err != nil {
			return fmt.Errorf("failed to create category %s: %w", cat.Slug, err)
		}
		report.CategoryIDs[cat.Slug] = categoryID
		s.logger.Info("Category uploaded",
			zap.String("name", cat.Name),
			zap.String("id", categoryID),
			zap.Int("products", len(cat.Products)),
		)

		for _, p := range cat.Products {
			productID, err := s.store.Create(ctx, domain.ProductsCollection, ProductFields(p, categoryID, cat.Slug))
			if err != nil {
				return fmt.Errorf("failed to create product %s: %w", p.Slug, err)
			}
			report.ProductIDs[p.Slug] = productID
		}
	}

	return nil
}

// CategoryFields builds the stored fields of a category.
func CategoryFields(c domain.CatalogCategory) store.Fields {
	return store.Fields{
		"name":      c.Name,
		"slug":      c.Slug,
		"imageUrl":  c.Image,
		"icon":      c.IconOrDefault(),
		"createdAt": store.ServerTimestamp,
	}
}

// ProductFields builds the stored fields of a product owned by the given
// category.
func ProductFields(p domain.CatalogProduct, categoryID, categorySlug string) store.Fields {
	specs := make(map[string]any, len(p.Details))
	for k, v := range p.Details {
		specs[k] = v
	}

	return store.Fields{
		"categoryId":     categoryID,
		"categorySlug":   categorySlug,
		"name":           p.Name,
		"slug":           p.Slug,
		"price":          p.Price,
		"stock":          p.Stock,
		"description":    p.Description,
		"imageUrl":       p.Image,
		"specifications": specs,
		"createdAt":      store.ServerTimestamp,
	}
}
