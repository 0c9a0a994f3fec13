package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/pointledger/internal/infrastructure/config"
	"github.com/iho/pointledger/internal/infrastructure/metrics"
)

func memoryConfig() *config.Config {
	return &config.Config{
		MaxBalance:     1000,
		StoreBackend:   config.BackendMemory,
		RateLimitBurst: 1,
	}
}

func TestOpenStores_Memory(t *testing.T) {
	st, err := openStores(context.Background(), memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	assert.NotNil(t, st.balances)
	assert.NotNil(t, st.histories)
	assert.Empty(t, st.checks)
}

func TestOpenStores_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreBackend = "cassandra"

	_, err := openStores(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestSeedAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts:\n  - id: 1\n    balance: 500\n"), 0o600))

	cfg := memoryConfig()
	cfg.SeedFile = path

	st, err := openStores(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, seedAccounts(context.Background(), cfg, st.balances, zerolog.Nop()))

	balance, err := st.balances.SelectByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.Balance)
}

func TestSeedAccounts_RejectsBalanceAboveLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts:\n  - id: 1\n    balance: 5000\n"), 0o600))

	cfg := memoryConfig()
	cfg.SeedFile = path

	st, err := openStores(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	assert.Error(t, seedAccounts(context.Background(), cfg, st.balances, zerolog.Nop()))
}

func TestNewRateLimiter(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	cfg := memoryConfig()

	assert.Nil(t, newRateLimiter(cfg, m), "zero rps disables rate limiting")

	cfg.RateLimitRPS = 5
	assert.NotNil(t, newRateLimiter(cfg, m))
}

func TestBuildRouter_EnforcesMaxBalance(t *testing.T) {
	cfg := memoryConfig()
	cfg.AutoProvision = true

	st, err := openStores(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	router := buildRouter(cfg, zerolog.Nop(), st, metrics.New(prometheus.NewRegistry()), nil, nil)

	req := httptest.NewRequest(http.MethodPatch, "/point/1/charge", strings.NewReader(`1001`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BALANCE_LIMIT_EXCEEDED")

	req = httptest.NewRequest(http.MethodPatch, "/point/1/charge", strings.NewReader(`1000`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
