package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finance-dashboard/internal/model"
)

func newAuthService(users *mockUserStore, tokens *mockTokenStore) *AuthService {
	svc := NewAuthService(users, tokens, "test-secret", 15*time.Minute, time.Hour)
	svc.cost = bcrypt.MinCost
	return svc
}

func testUser(t *testing.T, password string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return model.User{ID: "u1", Username: "alice", PasswordHash: string(hash), Role: model.RoleMember}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token pair", func(t *testing.T) {
		users := new(mockUserStore)
		tokens := new(mockTokenStore)
		users.On("FindByUsername", ctx, "alice").Return(testUser(t, "correct-horse"), nil)
		tokens.On("Store", ctx, mock.MatchedBy(func(tok model.RefreshToken) bool {
			return tok.UserID == "u1" && tok.ExpiresAt.After(tok.CreatedAt)
		})).Return(nil)
		svc := newAuthService(users, tokens)

		pair, err := svc.Login(ctx, "alice", "correct-horse")

		require.NoError(t, err)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, int64(900), pair.ExpiresIn)

		claims, err := svc.ValidateToken(pair.AccessToken, "access")
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, model.RoleMember, claims.Role)

		_, err = svc.ValidateToken(pair.AccessToken, "refresh")
		assert.Error(t, err)
		tokens.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("FindByUsername", ctx, "alice").Return(testUser(t, "correct-horse"), nil)

		_, err := newAuthService(users, new(mockTokenStore)).Login(ctx, "alice", "nope")

		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("FindByUsername", ctx, "bob").Return(model.User{}, model.ErrUserNotFound)

		_, err := newAuthService(users, new(mockTokenStore)).Login(ctx, "bob", "whatever")

		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	user := testUser(t, "correct-horse")
	users.On("FindByUsername", ctx, "alice").Return(user, nil)
	users.On("FindByID", ctx, "u1").Return(user, nil)
	tokens.On("Store", ctx, mock.AnythingOfType("model.RefreshToken")).Return(nil)
	svc := newAuthService(users, tokens)

	pair, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(pair.RefreshToken, "refresh")
	require.NoError(t, err)

	tokens.On("Validate", ctx, claims.TokenID).Return("u1", nil)
	tokens.On("Revoke", ctx, claims.TokenID).Return(nil)

	next, err := svc.Refresh(ctx, pair.RefreshToken)

	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	tokens.AssertCalled(t, "Revoke", ctx, claims.TokenID)
	tokens.AssertNumberOfCalls(t, "Store", 2)
}

func TestAuthService_RefreshRejectsRevokedToken(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	users.On("FindByUsername", ctx, "alice").Return(testUser(t, "correct-horse"), nil)
	tokens.On("Store", ctx, mock.AnythingOfType("model.RefreshToken")).Return(nil)
	tokens.On("Validate", ctx, mock.Anything).Return("", model.ErrTokenNotFound)
	svc := newAuthService(users, tokens)

	pair, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)

	assert.ErrorIs(t, err, model.ErrTokenNotFound)
	tokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to member", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("ExistsByUsername", ctx, "bob").Return(false, nil)
		users.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "bob" && u.Role == model.RoleMember && u.PasswordHash != "long-enough"
		})).Return(nil)

		user, err := newAuthService(users, new(mockTokenStore)).Register(ctx, " bob ", "long-enough", "")

		require.NoError(t, err)
		assert.Equal(t, model.RoleMember, user.Role)
		users.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("ExistsByUsername", ctx, "bob").Return(true, nil)

		_, err := newAuthService(users, new(mockTokenStore)).Register(ctx, "bob", "long-enough", "member")

		assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := newAuthService(new(mockUserStore), new(mockTokenStore)).Register(ctx, "bob", "short", "")

		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := newAuthService(new(mockUserStore), new(mockTokenStore)).Register(ctx, "bob", "long-enough", "owner")

		assert.Error(t, err)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds when empty", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("Count", ctx).Return(0, nil)
		users.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "root" && u.Role == model.RoleAdmin
		})).Return(nil)

		require.NoError(t, newAuthService(users, new(mockTokenStore)).EnsureAdmin(ctx, "root", "s3cret-pass"))
		users.AssertExpectations(t)
	})

	t.Run("noop when users exist", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("Count", ctx).Return(3, nil)

		require.NoError(t, newAuthService(users, new(mockTokenStore)).EnsureAdmin(ctx, "root", ""))
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_RefreshLosesRotationRace(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	users.On("FindByUsername", ctx, "alice").Return(testUser(t, "correct-horse"), nil)
	tokens.On("Store", ctx, mock.AnythingOfType("model.RefreshToken")).Return(nil)
	svc := newAuthService(users, tokens)

	pair, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(pair.RefreshToken, "refresh")
	require.NoError(t, err)

	tokens.On("Validate", ctx, claims.TokenID).Return("u1", nil)
	tokens.On("Revoke", ctx, claims.TokenID).Return(model.ErrTokenNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken)

	assert.ErrorIs(t, err, model.ErrTokenNotFound)
	tokens.AssertNumberOfCalls(t, "Store", 1)
}

func TestAuthService_LogoutIgnoresRevokedToken(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	users.On("FindByUsername", ctx, "alice").Return(testUser(t, "correct-horse"), nil)
	tokens.On("Store", ctx, mock.AnythingOfType("model.RefreshToken")).Return(nil)
	tokens.On("Revoke", ctx, mock.Anything).Return(model.ErrTokenNotFound)
	svc := newAuthService(users, tokens)

	pair, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	assert.NoError(t, svc.Logout(ctx, "not-a-jwt"))
}

func TestAuthService_LogoutAll(t *testing.T) {
	ctx := context.Background()
	tokens := new(mockTokenStore)
	tokens.On("RevokeAllForUser", ctx, "u1").Return(int64(3), nil)

	revoked, err := newAuthService(new(mockUserStore), tokens).LogoutAll(ctx, "u1")

	require.NoError(t, err)
	assert.EqualValues(t, 3, revoked)
}
