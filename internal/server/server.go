package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"toy-catalog/internal/config"
	"toy-catalog/internal/domain"
	custommiddleware "toy-catalog/internal/middleware"
	"toy-catalog/internal/repository"
	"toy-catalog/internal/service"
	"toy-catalog/internal/store"
	"toy-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReseedLimit bounds admin reseeds per token subject
var ReseedLimit = custommiddleware.RateLimitConfig{
	RequestsPerWindow: 3,
	Window:            10 * time.Minute,
	KeyPrefix:         "ratelimit:reseed",
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	store  store.DocumentStore
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, st store.DocumentStore, rdb *redis.Client, catalog *domain.Catalog) *Server {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "ok", "driver": cfg.Seed.Driver}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
		if hc, ok := st.(store.HealthChecker); ok {
			status["store"] = hc.Health(r.Context())
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, status)
	})

	catalogService := service.NewCatalogService(
		repository.NewCategoryRepository(st),
		repository.NewProductRepository(st),
		rdb,
		logger,
	)

	transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(router)

	transport.NewAdminHandler(st, catalog, catalogService, cfg.Seed.BatchSize, logger).RegisterRoutes(router,
		custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		custommiddleware.RequireAdmin(logger),
		custommiddleware.RateLimitMiddleware(rdb, ReseedLimit, logger),
	)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
		config: cfg,
		logger: logger,
		store:  st,
		redis:  rdb,
	}
}

// NewRedisClient connects to the configured Redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close document store", zap.Error(err))
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
