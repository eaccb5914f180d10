package repository

import (
	"context"
	"errors"
	"fmt"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/store"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

var validSortFields = map[string]bool{
	"name":      true,
	"price":     true,
	"createdAt": true,
	"stock":     true,
}

// ProductFilter selects a page of products. An empty SortBy keeps store
// order; an unknown one falls back to createdAt. After is the ID of the
// last product of the previous page.
type ProductFilter struct {
	CategoryID string
	SortBy     string
	SortOrder  SortOrder
	Limit      int
	After      string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
}

type productRepository struct {
	store store.DocumentStore
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(st store.DocumentStore) ProductRepository {
	return &productRepository{store: st}
}

// FindByID retrieves a product by its store-generated ID
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	doc, err := r.store.Get(ctx, domain.ProductsCollection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return toProduct(doc)
}

// List retrieves products with optional category filtering, sorting and
// cursor pagination. A cursor that no longer exists returns
// ErrProductNotFound.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	q := store.Query{Limit: filter.Limit}

	if filter.CategoryID != "" {
		q.Where = append(q.Where, store.Filter{Field: "categoryId", Value: filter.CategoryID})
	}

	if filter.SortBy != "" {
		if !validSortFields[filter.SortBy] {
			filter.SortBy = "createdAt"
		}
		q.OrderBy = filter.SortBy
		q.Direction = store.Desc
		if filter.SortOrder == SortOrderAsc {
			q.Direction = store.Asc
		}
		q.StartAfter = filter.After
	}

	docs, err := r.store.Find(ctx, domain.ProductsCollection, q)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		product, err := toProduct(&docs[i])
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

func toProduct(doc *store.Document) (*domain.Product, error) {
	product := &domain.Product{}
	if err := store.Decode(doc, product); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", doc.ID, err)
	}
	product.ID = doc.ID
	return product, nil
}
