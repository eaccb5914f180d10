package seed

import (
	"context"
	"errors"
	"fmt"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/store"

	"go.uber.org/zap"
)

var ErrVerification = errors.New("seeded catalog does not match")

// Verify re-reads both collections and checks that they hold exactly the
// documents of the report and that every product points at a category of
// this run.
func (s *Seeder) Verify(ctx context.Context, catalog *domain.Catalog, report *Report) error {
	categories, err := s.store.Find(ctx, domain.CategoriesCollection, store.Query{})
	if err != nil {
		return fmt.Errorf("failed to read back categories: %w", err)
	}
	products, err := s.store.Find(ctx, domain.ProductsCollection, store.Query{})
	if err != nil {
		return fmt.Errorf("failed to read back products: %w", err)
	}

	if len(categories) != len(catalog.Categories) {
		return fmt.Errorf("%w: %d categories stored, %d expected", ErrVerification, len(categories), len(catalog.Categories))
	}
	if len(products) != catalog.ProductCount() {
		return fmt.Errorf("%w: %d products stored, %d expected", ErrVerification, len(products), catalog.ProductCount())
	}

	slugByID := make(map[string]string, len(report.CategoryIDs))
	for slug, id := range report.CategoryIDs {
		slugByID[id] = slug
	}

	for i := range categories {
		if _, ok := slugByID[categories[i].ID]; !ok {
			return fmt.Errorf("%w: category %s was not written by this run", ErrVerification, categories[i].ID)
		}
	}

	for i := range products {
		var p domain.Product
		if err := store.Decode(&products[i], &p); err != nil {
			return err
		}
		slug, ok := slugByID[p.CategoryID]
		if !ok {
			return fmt.Errorf("%w: product %s references unknown category %s", ErrVerification, products[i].ID, p.CategoryID)
		}
		if slug != p.CategorySlug {
			return fmt.Errorf("%w: product %s has category slug %s, want %s", ErrVerification, products[i].ID, p.CategorySlug, slug)
		}
	}

	s.logger.Info("Catalog verified",
		zap.Int("categories", len(categories)),
		zap.Int("products", len(products)),
	)
	return nil
}
