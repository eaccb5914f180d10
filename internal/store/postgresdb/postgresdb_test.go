package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"toy-catalog/internal/database"
	"toy-catalog/internal/store"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}

	os.Exit(code)
}

func truncate(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec("DELETE FROM documents"); err != nil {
		t.Fatalf("Failed to clean documents: %v", err)
	}
}

func TestMigrationsApplied(t *testing.T) {
	version, err := database.MigrationVersion(testDB)
	if err != nil {
		t.Fatalf("Failed to read migration version: %v", err)
	}
	if version != 2 {
		t.Errorf("migration version = %d, want 2", version)
	}
}

func TestCreateAndGet(t *testing.T) {
	truncate(t)
	s := New(testDB)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	id, err := s.Create(ctx, "products", store.Fields{
		"name":           "Auto RC 4x4",
		"price":          150.0,
		"stock":          10,
		"specifications": map[string]any{"bateria": "USB"},
		"createdAt":      store.ServerTimestamp,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated ID")
	}

	doc, err := s.Get(ctx, "products", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	var got struct {
		Name      string            `mapstructure:"name"`
		Price     float64           `mapstructure:"price"`
		Stock     int               `mapstructure:"stock"`
		Specs     map[string]string `mapstructure:"specifications"`
		CreatedAt time.Time         `mapstructure:"createdAt"`
	}
	if err := store.Decode(doc, &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got.Name != "Auto RC 4x4" || got.Price != 150 || got.Stock != 10 || got.Specs["bateria"] != "USB" {
		t.Errorf("unexpected document: %+v", got)
	}
	if got.CreatedAt.Before(before) {
		t.Errorf("createdAt %v was not assigned by the server", got.CreatedAt)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := New(testDB).Get(context.Background(), "products", "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFind_FilterOrderAndCursor(t *testing.T) {
	truncate(t)
	s := New(testDB)
	ctx := context.Background()

	for _, p := range []struct {
		category string
		price    float64
	}{
		{"carros", 150}, {"carros", 75}, {"carros", 150}, {"carros", 20}, {"peluches", 999},
	} {
		if _, err := s.Create(ctx, "products", store.Fields{"categoryId": p.category, "price": p.price}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	q := store.Query{
		Where:     []store.Filter{{Field: "categoryId", Value: "carros"}},
		OrderBy:   "price",
		Direction: store.Desc,
		Limit:     2,
	}

	var prices []float64
	seen := map[string]bool{}
	for {
		page, err := s.Find(ctx, "products", q)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		for _, d := range page {
			if seen[d.ID] {
				t.Fatalf("document %s returned twice", d.ID)
			}
			seen[d.ID] = true
			prices = append(prices, d.Fields["price"].(float64))
		}
		if len(page) < q.Limit {
			break
		}
		q.StartAfter = page[len(page)-1].ID
	}

	want := []float64{150, 150, 75, 20}
	if len(prices) != len(want) {
		t.Fatalf("prices = %v, want %v", prices, want)
	}
	for i := range want {
		if prices[i] != want[i] {
			t.Errorf("prices = %v, want %v", prices, want)
			break
		}
	}
}

func TestFind_UnknownCursor(t *testing.T) {
	_, err := New(testDB).Find(context.Background(), "products", store.Query{OrderBy: "price", StartAfter: "nope"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Property: a limited fetch never returns more than the limit and deletes
// empty the collection batch by batch
func TestProperty_LimitedFetchAndDelete(t *testing.T) {
	s := New(testDB)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	properties.Property("fetch respects limit and delete removes documents", prop.ForAll(
		func(total int, limit int) bool {
			ctx := context.Background()
			truncate(t)

			for i := 0; i < total; i++ {
				if _, err := s.Create(ctx, "categories", store.Fields{"n": i}); err != nil {
					t.Logf("FAIL: Create error: %v", err)
					return false
				}
			}

			for {
				docs, err := s.Find(ctx, "categories", store.Query{Limit: limit})
				if err != nil {
					t.Logf("FAIL: Find error: %v", err)
					return false
				}
				if len(docs) > limit {
					return false
				}
				for _, d := range docs {
					if err := s.Delete(ctx, "categories", d.ID); err != nil {
						return false
					}
				}
				if len(docs) < limit {
					break
				}
			}

			var left int
			if err := testDB.QueryRow("SELECT COUNT(*) FROM documents WHERE collection = 'categories'").Scan(&left); err != nil {
				return false
			}
			return left == 0
		},
		gen.IntRange(0, 25),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestHealth(t *testing.T) {
	stats := New(testDB).Health(context.Background())
	if stats["status"] != "up" {
		t.Errorf("health = %v, want status up", stats)
	}
}
