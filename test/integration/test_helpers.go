//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/classifier"
	"finance-dashboard/internal/config"
	"finance-dashboard/internal/currency"
	"finance-dashboard/internal/database"
	"finance-dashboard/internal/deletion"
	"finance-dashboard/internal/event"
	"finance-dashboard/internal/handler"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/middleware"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/internal/router"
	"finance-dashboard/internal/service"
	"finance-dashboard/internal/websocket"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-password-123"
	testWindow    = 400 * time.Millisecond
)

type testServer struct {
	*httptest.Server
	accessToken string
	db          *database.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

// fakeClassifier answers like the prediction service: descriptions that
// mention a market are confidently groceries, anything else is a low
// confidence guess.
func fakeClassifier(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if r.URL.Path != "/api/v1/predict" || json.NewDecoder(r.Body).Decode(&req) != nil {
			http.NotFound(w, r)
			return
		}

		category, confidence := "Shopping", 0.2
		if strings.Contains(strings.ToLower(req.Text), "market") {
			category, confidence = "Groceries", 0.93
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "success",
			"request_id": "fake",
			"data":       map[string]any{"category": category, "confidence": confidence},
			"metadata":   map[string]any{"model_version": "test"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// newAuthedServer wires the full stack against DATABASE_URL with an empty
// schema and a short deletion window, then logs in as the seeded admin.
func newAuthedServer(t *testing.T) *testServer {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.New(ctx, databaseURL, database.Options{MaxConns: 4, MinConns: 1, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE users, refresh_tokens, assets, transactions, preferences, deletion_log CASCADE`)
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:   10 * time.Second,
		JWTSecret:        "test-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    24 * time.Hour,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
		DefaultCurrency:  "USD",
		DefaultLocale:    "en-US",
	}

	pool := db.Pool
	deletionLog := repository.NewDeletionLogRepository(pool)
	authService := service.NewAuthService(repository.NewUserRepository(pool), repository.NewTokenRepository(pool), cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	require.NoError(t, authService.EnsureAdmin(ctx, adminUsername, adminPassword))

	bus := event.NewBusWithLogger(logger)
	formatter := currency.NewFormatter(cfg.DefaultCurrency, cfg.DefaultLocale)
	preferenceService := service.NewPreferenceService(repository.NewPreferenceRepository(pool), formatter, bus)
	assetService := service.NewAssetService(repository.NewAssetRepository(pool), preferenceService, formatter, bus)
	categories := classifier.New(classifier.Options{BaseURL: fakeClassifier(t), Logger: logger})
	transactionService := service.NewTransactionService(repository.NewTransactionRepository(pool), assetService, preferenceService, formatter, bus).
		WithCategorizer(categories)

	controller := deletion.NewController(bus, deletion.Options{Window: testWindow, Tick: 50 * time.Millisecond, Logger: logger})
	controller.Register(model.KindAsset, assetService)
	controller.Register(model.KindTransaction, transactionService)
	t.Cleanup(controller.Close)

	deletionService := service.NewDeletionService(controller, deletionLog)
	deletionService.Resolve(model.KindAsset, assetService)
	deletionService.Resolve(model.KindTransaction, transactionService)
	service.NewDeletionRecorder(deletionLog, logger).Attach(bus)

	collector := metrics.New()
	collector.Attach(bus)

	hub := websocket.NewHub(bus, deletionService, logger)
	hubCtx, cancel := context.WithCancel(ctx)
	go func() { _ = hub.Run(hubCtx) }()
	t.Cleanup(cancel)

	server := httptest.NewServer(router.New(
		cfg,
		logger,
		db.Health,
		collector,
		middleware.NewAuthMiddleware(authService),
		handler.NewAuthHandler(authService),
		handler.NewAssetHandler(assetService, deletionService),
		handler.NewTransactionHandler(transactionService, deletionService),
		handler.NewClassifyHandler(categories),
		handler.NewDeletionHandler(deletionService),
		handler.NewPreferenceHandler(preferenceService),
		handler.NewWSHandler(hub),
	))
	t.Cleanup(server.Close)

	body, err := json.Marshal(map[string]string{"username": adminUsername, "password": adminPassword})
	require.NoError(t, err)
	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Data model.TokenPair `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.Data.AccessToken)

	return &testServer{Server: server, accessToken: parsed.Data.AccessToken, db: db}
}

// call sends an authenticated request and decodes the envelope into out
// when out is not nil.
func (s *testServer) call(t *testing.T, method string, path string, payload any, out any) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode, env
}
