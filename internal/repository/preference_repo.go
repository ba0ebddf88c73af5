package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance-dashboard/internal/model"
)

type PreferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

// Get returns model.ErrNotFound when the user never saved preferences.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (model.Preferences, error) {
	var p model.Preferences
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, currency, locale, updated_at FROM preferences WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Currency, &p.Locale, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Preferences{}, model.ErrNotFound
	}
	if err != nil {
		return model.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, p model.Preferences) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO preferences (user_id, currency, locale, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET currency = EXCLUDED.currency, locale = EXCLUDED.locale, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Currency, p.Locale, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
