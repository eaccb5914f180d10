package transport

import (
	"errors"
	"net/http"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/middleware"
	"toy-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductPage is one page of a category listing. NextAfter is the cursor
// for the following page and is empty on the last one.
type ProductPage struct {
	Products  []*domain.Product `json:"products"`
	NextAfter string            `json:"nextAfter,omitempty"`
}

// CatalogHandler serves the read-only catalog
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{id}", h.GetCategory)
		r.Get("/{id}/products", h.ProductsByCategory)
		r.Get("/{id}/related", h.RelatedProducts)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/featured", h.FeaturedProducts)
		r.Get("/{id}", h.GetProduct)
	})
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.fail(w, "Failed to list categories", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.fail(w, "Failed to get category", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// ProductsByCategory pages through a category with the after query
// parameter
func (h *CatalogHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ProductsByCategory(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("after"))
	if err != nil {
		h.fail(w, "Failed to page products", err)
		return
	}

	page := ProductPage{Products: products}
	if len(products) == service.PageSize {
		page.NextAfter = products[len(products)-1].ID
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.RelatedProducts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list related products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "Failed to list products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FeaturedProducts(r.Context())
	if err != nil {
		h.fail(w, "Failed to list featured products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.fail(w, "Failed to get product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "failed to read catalog")
}
