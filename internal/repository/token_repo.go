package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance-dashboard/internal/model"
)

// TokenRepository keeps one row per live refresh token. A token is usable
// exactly once: Refresh revokes it before issuing the next pair.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Store(ctx context.Context, token model.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		token.ID, token.UserID, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("store refresh token %s: %w", token.ID, err)
	}
	return nil
}

// Validate returns the owner of an unexpired token.
func (r *TokenRepository) Validate(ctx context.Context, tokenID string) (string, error) {
	var userID string
	err := r.pool.QueryRow(ctx,
		`SELECT user_id FROM refresh_tokens WHERE id = $1 AND expires_at > now()`,
		tokenID).Scan(&userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return "", model.ErrTokenNotFound
	case err != nil:
		return "", fmt.Errorf("validate refresh token: %w", err)
	}
	return userID, nil
}

// Revoke deletes the token. It reports model.ErrTokenNotFound when nothing
// was deleted, so two racing refreshes cannot both rotate the same token.
func (r *TokenRepository) Revoke(ctx context.Context, tokenID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, tokenID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens for user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
