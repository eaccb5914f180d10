package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toy-catalog/internal/catalog"
	"toy-catalog/internal/config"
	"toy-catalog/internal/logger"
	"toy-catalog/internal/seed"
	"toy-catalog/internal/store/driver"

	"go.uber.org/zap"
)

const credentialsHint = "check FIREBASE_PRIVATE_KEY in your .env"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, "seed")
	if err != nil {
		log = logger.NewWithDefaults("seed")
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := catalog.Load(cfg.Seed.CatalogFile)
	if err != nil {
		log.Error("Failed to load catalog", zap.String("file", cfg.Seed.CatalogFile), zap.Error(err))
		return 1
	}

	log.Info("Connecting to document store", zap.String("driver", cfg.Seed.Driver))

	st, err := driver.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Connection error", connectionErrorFields(cfg.Seed.Driver, err)...)
	}
	defer st.Close()

	start := time.Now()
	seeder := seed.NewSeeder(st, log, cfg.Seed.BatchSize)

	report, err := seeder.Run(ctx, c)
	if err != nil {
		log.Error("Seeding failed",
			zap.Error(err),
			zap.Int("categories_deleted", report.CategoriesDeleted),
			zap.Int("products_deleted", report.ProductsDeleted),
			zap.Int("categories_created", len(report.CategoryIDs)),
			zap.Int("products_created", len(report.ProductIDs)),
		)
		return 1
	}

	if cfg.Seed.Verify {
		if err := seeder.Verify(ctx, c, report); err != nil {
			log.Error("Verification failed", zap.Error(err))
			return 1
		}
		log.Info("Verification passed")
	}

	log.Info("Seed complete",
		zap.Int("categories", len(report.CategoryIDs)),
		zap.Int("products", len(report.ProductIDs)),
		zap.Duration("took", time.Since(start)),
	)
	return 0
}

// connectionErrorFields describes a failed driver.Open. Firestore failures
// carry the credentials hint.
func connectionErrorFields(name string, err error) []zap.Field {
	fields := []zap.Field{zap.String("driver", name), zap.Error(err)}
	if name == driver.Firestore || name == "" {
		fields = append(fields, zap.String("hint", credentialsHint))
	}
	return fields
}
