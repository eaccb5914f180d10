package repository

import (
	"context"
	"testing"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/store"
	"toy-catalog/internal/store/memdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	st := memdb.New()
	repo := NewCategoryRepository(st)

	id, err := st.Create(ctx, domain.CategoriesCollection, store.Fields{
		"name": "Peluches", "slug": "peluches", "icon": "🧸", "imageUrl": "https://example.com/p.jpg",
	})
	require.NoError(t, err)

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, id, categories[0].ID)
	assert.Equal(t, "🧸", categories[0].Icon)

	category, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "peluches", category.Slug)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestProductRepository_NotFound(t *testing.T) {
	_, err := NewProductRepository(memdb.New()).FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_UnknownSortFieldFallsBackToCreatedAt(t *testing.T) {
	ctx := context.Background()
	st := memdb.New()
	repo := NewProductRepository(st)

	for _, slug := range []string{"a", "b"} {
		_, err := st.Create(ctx, domain.ProductsCollection, store.Fields{"slug": slug, "createdAt": store.ServerTimestamp})
		require.NoError(t, err)
	}

	products, err := repo.List(ctx, ProductFilter{SortBy: "password", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestProductRepository_StaleCursor(t *testing.T) {
	_, err := NewProductRepository(memdb.New()).List(context.Background(), ProductFilter{SortBy: "price", After: "gone"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
