package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/middleware"
	"finance-dashboard/internal/model"
)

var alice = &model.AuthClaims{UserID: "user-1", Username: "alice", Role: model.RoleMember, Type: "access"}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

// serve routes a single request through a chi router so URL params resolve.
func serve(t *testing.T, method string, pattern string, h http.HandlerFunc, target string, body string, claims *model.AuthClaims) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}
