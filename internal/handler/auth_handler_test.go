package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/model"
)

type fakeAuth struct {
	loginErr    error
	refreshed   string
	loggedOut   string
	revokedFor  string
	registerErr error
}

func (f *fakeAuth) Login(_ context.Context, username string, password string) (model.TokenPair, error) {
	if f.loginErr != nil {
		return model.TokenPair{}, f.loginErr
	}
	return model.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", User: model.AuthUser{Username: username}}, nil
}

func (f *fakeAuth) Register(_ context.Context, username string, _ string, role string) (model.AuthUser, error) {
	if f.registerErr != nil {
		return model.AuthUser{}, f.registerErr
	}
	return model.AuthUser{ID: "u2", Username: username, Role: role}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (model.TokenPair, error) {
	f.refreshed = refreshToken
	return model.TokenPair{AccessToken: "next"}, nil
}

func (f *fakeAuth) Logout(_ context.Context, refreshToken string) error {
	f.loggedOut = refreshToken
	return nil
}

func (f *fakeAuth) LogoutAll(_ context.Context, userID string) (int64, error) {
	f.revokedFor = userID
	return 2, nil
}

func (f *fakeAuth) GetUserByID(_ context.Context, userID string) (model.AuthUser, error) {
	return model.AuthUser{ID: userID, Username: "alice", Role: model.RoleMember}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{})

	rec, env := serve(t, http.MethodPost, "/login", h.Login, "/login", `{"username":"alice","password":"secret-pass"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	assert.Equal(t, "access", pair.AccessToken)
}

func TestAuthHandlerLoginRejectsBadCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{loginErr: model.ErrInvalidCredentials})

	rec, env := serve(t, http.MethodPost, "/login", h.Login, "/login", `{"username":"alice","password":"wrong"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Invalid credentials", env.Error.Message)
}

func TestAuthHandlerLoginRequiresFields(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{})

	rec, env := serve(t, http.MethodPost, "/login", h.Login, "/login", `{"username":"alice"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "password: required")
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{registerErr: model.ErrUserAlreadyExists})

	rec, _ := serve(t, http.MethodPost, "/register", h.Register, "/register", `{"username":"bob","password":"long-enough","role":"member"}`, alice)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandlerRegisterRejectsUnknownRole(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{})

	rec, _ := serve(t, http.MethodPost, "/register", h.Register, "/register", `{"username":"bob","password":"long-enough","role":"owner"}`, alice)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerRefreshTrimsToken(t *testing.T) {
	auth := &fakeAuth{}
	h := NewAuthHandler(auth)

	rec, _ := serve(t, http.MethodPost, "/refresh", h.Refresh, "/refresh", `{"refresh_token":"  tok  "}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", auth.refreshed)
}

func TestAuthHandlerLogoutAll(t *testing.T) {
	auth := &fakeAuth{}
	h := NewAuthHandler(auth)

	rec, env := serve(t, http.MethodPost, "/logout-all", h.LogoutAll, "/logout-all", "", alice)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", auth.revokedFor)
	assert.JSONEq(t, `{"revoked_sessions":2}`, string(env.Data))
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{})

	rec, env := serve(t, http.MethodGet, "/me", h.Me, "/me", "", alice)

	require.Equal(t, http.StatusOK, rec.Code)
	var user model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "user-1", user.ID)
}
