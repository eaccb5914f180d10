package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"toy-catalog/internal/catalog"
	"toy-catalog/internal/config"
	"toy-catalog/internal/domain"
	"toy-catalog/internal/middleware"
	"toy-catalog/internal/store/memdb"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "server-test-secret"

func newTestServer(t *testing.T) (*Server, *memdb.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c, err := catalog.Default()
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		Seed:   config.SeedConfig{Driver: "memory", BatchSize: 10},
		JWT:    config.JWTConfig{Secret: secret},
	}

	st := memdb.New()
	srv := NewServer(cfg, zap.NewNop(), st, rdb, c)
	t.Cleanup(func() { srv.Close() })
	return srv, st, mr
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func do(srv *Server, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := do(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","driver":"memory","redis":"up"}`, w.Body.String())
}

func TestReseedThenRead(t *testing.T) {
	srv, st, mr := newTestServer(t)

	// empty store, cached as empty
	w := do(srv, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.True(t, mr.Exists("catalog:categories"))

	w = do(srv, http.MethodPost, "/api/admin/reseed", token(t, "ops", middleware.AdminRole))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, st.Count(domain.CategoriesCollection))
	assert.False(t, mr.Exists("catalog:categories"))

	w = do(srv, http.MethodGet, "/api/categories", "")
	var categories []domain.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	assert.Len(t, categories, 2)
}

func TestReseed_Guards(t *testing.T) {
	srv, st, _ := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(srv, http.MethodPost, "/api/admin/reseed", "").Code)
	assert.Equal(t, http.StatusForbidden, do(srv, http.MethodPost, "/api/admin/reseed", token(t, "shopper", "customer")).Code)
	assert.Equal(t, 0, st.Count(domain.CategoriesCollection))

	admin := token(t, "ops", middleware.AdminRole)
	for i := 0; i < ReseedLimit.RequestsPerWindow; i++ {
		require.Equal(t, http.StatusOK, do(srv, http.MethodPost, "/api/admin/reseed", admin).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(srv, http.MethodPost, "/api/admin/reseed", admin).Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
