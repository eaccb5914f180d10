package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"toy-catalog/internal/domain"
	"toy-catalog/internal/middleware"
	"toy-catalog/internal/seed"
	"toy-catalog/internal/service"
	"toy-catalog/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReseedRequest is the optional body of a reseed call
type ReseedRequest struct {
	BatchSize int  `json:"batchSize" validate:"omitempty,gte=1,lte=500"`
	Verify    bool `json:"verify"`
}

// ReseedResponse summarises a completed reseed
type ReseedResponse struct {
	CategoriesDeleted int               `json:"categoriesDeleted"`
	ProductsDeleted   int               `json:"productsDeleted"`
	CategoryIDs       map[string]string `json:"categoryIds"`
	ProductIDs        map[string]string `json:"productIds"`
	Verified          bool              `json:"verified"`
	DurationMS        int64             `json:"durationMs"`
}

// AdminHandler runs the clean-and-seed routine on demand
type AdminHandler struct {
	store     store.DocumentStore
	catalog   *domain.Catalog
	cache     service.CatalogService
	batchSize int
	logger    *zap.Logger

	// running guards against overlapping reseeds in this process
	running sync.Mutex
}

func NewAdminHandler(st store.DocumentStore, catalog *domain.Catalog, cache service.CatalogService, batchSize int, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:     st,
		catalog:   catalog,
		cache:     cache,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RegisterRoutes registers the admin routes behind the given middleware
func (h *AdminHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(guards...)
		r.Post("/reseed", h.Reseed)
	})
}

func (h *AdminHandler) Reseed(w http.ResponseWriter, r *http.Request) {
	var req ReseedRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Reseed validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.running.TryLock() {
		middleware.RespondWithError(w, http.StatusConflict, "a reseed is already running")
		return
	}
	defer h.running.Unlock()

	batchSize := h.batchSize
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}

	subject, _ := middleware.GetSubject(r.Context())
	h.logger.Info("Reseed requested",
		zap.String("subject", subject),
		zap.Int("batch_size", batchSize),
		zap.Bool("verify", req.Verify),
	)

	// a disconnecting client must not leave the catalog half written
	ctx := context.WithoutCancel(r.Context())
	start := time.Now()

	seeder := seed.NewSeeder(h.store, h.logger, batchSize)
	report, err := seeder.Run(ctx, h.catalog)
	if err == nil && req.Verify {
		err = seeder.Verify(ctx, h.catalog, report)
	}

	// the store changed even when the run failed part way
	if cacheErr := h.cache.Invalidate(ctx); cacheErr != nil {
		h.logger.Warn("Failed to invalidate catalog cache", zap.Error(cacheErr))
	}

	if err != nil {
		h.logger.Error("Reseed failed", zap.Error(err))
		middleware.RespondWithErrorDetails(w, http.StatusInternalServerError, "reseed failed", map[string]interface{}{
			"categoriesDeleted": report.CategoriesDeleted,
			"productsDeleted":   report.ProductsDeleted,
			"categoriesCreated": len(report.CategoryIDs),
			"productsCreated":   len(report.ProductIDs),
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ReseedResponse{
		CategoriesDeleted: report.CategoriesDeleted,
		ProductsDeleted:   report.ProductsDeleted,
		CategoryIDs:       report.CategoryIDs,
		ProductIDs:        report.ProductIDs,
		Verified:          req.Verify,
		DurationMS:        time.Since(start).Milliseconds(),
	})
}
