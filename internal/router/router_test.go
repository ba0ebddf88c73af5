package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finance-dashboard/internal/config"
	"finance-dashboard/internal/handler"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/middleware"
	"finance-dashboard/internal/model"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(string, string) (*model.AuthClaims, error) {
	return nil, errors.New("invalid")
}

func newTestRouter(health HealthCheck) http.Handler {
	cfg := &config.Config{
		RequestTimeout:   time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}
	return New(
		cfg,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		health,
		metrics.New(),
		middleware.NewAuthMiddleware(rejectAll{}),
		handler.NewAuthHandler(nil),
		handler.NewAssetHandler(nil, nil),
		handler.NewTransactionHandler(nil, nil),
		handler.NewClassifyHandler(nil),
		handler.NewDeletionHandler(nil),
		handler.NewPreferenceHandler(nil),
		handler.NewWSHandler(nil),
	)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(func(context.Context) error { return nil }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(func(context.Context) error { return errors.New("db down") }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finance_deletions_pending")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(nil)

	for _, target := range []string{"/api/v1/assets", "/api/v1/transactions", "/api/v1/deletions", "/api/v1/preferences", "/api/v1/ws"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
