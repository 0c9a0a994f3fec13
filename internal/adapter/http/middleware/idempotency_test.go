package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/pointledger/internal/usecase/mocks"
)

func newIdempotentRequest(method, path, key string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(`10`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotencyMiddleware_ReplaysSuccessfulResponse(t *testing.T) {
	store := mocks.NewIdempotencyStoreStub()
	replays := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_idempotent_replays_total"})
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop()).WithReplayCounter(replays)

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"account_id":1,"balance":10}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest(http.MethodPatch, "/point/1/charge", "k1"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest(http.MethodPatch, "/point/1/charge", "k1"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(replays))
}

func TestIdempotencyMiddleware_KeyIsScopedByPath(t *testing.T) {
	store := mocks.NewIdempotencyStoreStub()
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodPatch, "/point/1/charge", "same"))
	handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodPatch, "/point/1/use", "same"))

	assert.Equal(t, 2, calls)
	_, ok := store.Get("PATCH /point/1/use:same")
	assert.True(t, ok)
}

func TestIdempotencyMiddleware_InFlightRequestConflicts(t *testing.T) {
	store := mocks.NewIdempotencyStoreStub()
	_, _, err := store.CheckAndSet(context.Background(), "PATCH /point/1/charge:busy", nil, time.Minute)
	require.NoError(t, err)

	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newIdempotentRequest(http.MethodPatch, "/point/1/charge", "busy"))

	assert.False(t, called)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "REQUEST_IN_PROGRESS")
}

func TestIdempotencyMiddleware_ReleasesKeyOnFailure(t *testing.T) {
	store := mocks.NewIdempotencyStoreStub()
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	status := http.StatusBadRequest
	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodPatch, "/point/1/use", "retry"))

	_, ok := store.Get("PATCH /point/1/use:retry")
	assert.False(t, ok, "failed request must not keep the key")

	status = http.StatusOK
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newIdempotentRequest(http.MethodPatch, "/point/1/use", "retry"))

	assert.Equal(t, 2, calls)
	assert.Empty(t, rr.Header().Get("X-Idempotency-Replay"))
}

func TestIdempotencyMiddleware_ReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := mocks.NewIdempotencyStoreStub()
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	calls := 0
	handler := Recovery(zerolog.Nop())(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("handler crashed")
		}
		w.Write([]byte(`{"account_id":1,"balance":5}`))
	})))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest(http.MethodPatch, "/point/1/charge", "crash"))
	require.Equal(t, http.StatusInternalServerError, first.Code)

	_, ok := store.Get("PATCH /point/1/charge:crash")
	assert.False(t, ok, "panicking request must not keep the key")

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, newIdempotentRequest(http.MethodPatch, "/point/1/charge", "crash"))

	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Equal(t, 2, calls)
	assert.Empty(t, retry.Header().Get("X-Idempotency-Replay"))
}

func TestIdempotencyMiddleware_StoreErrorRejectsRequest(t *testing.T) {
	store := mocks.NewIdempotencyStoreStub()
	store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
		return false, nil, errors.New("redis down")
	}
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newIdempotentRequest(http.MethodPatch, "/point/1/charge", "key-err"))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestIdempotencyMiddleware_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		key    string
	}{
		{name: "read request", method: http.MethodGet, key: "k"},
		{name: "missing key", method: http.MethodPatch, key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewIdempotencyStoreStub()
			store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
				t.Fatalf("store must not be consulted")
				return false, nil, nil
			}
			mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

			called := false
			mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(tt.method, "/point/1/charge", tt.key))

			assert.True(t, called)
		})
	}
}
