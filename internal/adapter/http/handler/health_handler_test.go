package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil).Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]Pinger
		expected int
	}{
		{
			name:     "no dependencies",
			expected: http.StatusOK,
		},
		{
			name: "all healthy",
			checks: map[string]Pinger{
				"postgres": func(ctx context.Context) error { return nil },
				"redis":    func(ctx context.Context) error { return nil },
			},
			expected: http.StatusOK,
		},
		{
			name: "redis down",
			checks: map[string]Pinger{
				"postgres": func(ctx context.Context) error { return nil },
				"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
			},
			expected: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}

			if tt.expected == http.StatusOK {
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				for name := range tt.checks {
					if body[name] != "ok" {
						t.Fatalf("expected %s to be reported ok, got %+v", name, body)
					}
				}
			}
		})
	}
}
