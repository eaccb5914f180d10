package repository

import (
	"context"
	"errors"
	"fmt"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/store"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
}

type categoryRepository struct {
	store store.DocumentStore
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(st store.DocumentStore) CategoryRepository {
	return &categoryRepository{store: st}
}

// List retrieves all categories in store order
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	docs, err := r.store.Find(ctx, domain.CategoriesCollection, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(docs))
	for i := range docs {
		category, err := toCategory(&docs[i])
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, nil
}

// FindByID retrieves a category by its store-generated ID
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	doc, err := r.store.Get(ctx, domain.CategoriesCollection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return toCategory(doc)
}

func toCategory(doc *store.Document) (*domain.Category, error) {
	category := &domain.Category{}
	if err := store.Decode(doc, category); err != nil {
		return nil, fmt.Errorf("failed to decode category %s: %w", doc.ID, err)
	}
	category.ID = doc.ID
	return category, nil
}
