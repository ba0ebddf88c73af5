package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance-dashboard/internal/model"
)

type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

const assetColumns = `id, user_id, name, type, value::text, currency, soft_deleted, created_at, updated_at`

func scanAsset(row rowScanner) (model.Asset, error) {
	var a model.Asset
	var value string
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &value, &a.Currency,
		&a.SoftDeleted, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Asset{}, err
	}

	amount, err := parseAmount(value)
	if err != nil {
		return model.Asset{}, err
	}
	a.Value = amount
	return a, nil
}

func (r *AssetRepository) Create(ctx context.Context, a model.Asset) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assets (id, user_id, name, type, value, currency, soft_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.Name, a.Type, a.Value.String(), a.Currency, a.SoftDeleted, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

// FindByID returns the asset regardless of owner or soft-delete flag.
func (r *AssetRepository) FindByID(ctx context.Context, id string) (model.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Asset{}, model.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("find asset: %w", err)
	}
	return a, nil
}

func (r *AssetRepository) List(ctx context.Context, query model.AssetQuery) ([]model.Asset, int, error) {
	where := []string{"user_id = $1"}
	args := []any{query.UserID}

	if !query.IncludeDeleted {
		where = append(where, "soft_deleted = false")
	}
	if query.Type != "" {
		args = append(args, query.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assets WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	page, limit := model.ClampPage(query.Page, query.Limit)
	args = append(args, limit, offset(page, limit))
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM assets WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
			assetColumns, clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]model.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, total, rows.Err()
}

func (r *AssetRepository) Update(ctx context.Context, a model.Asset) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET name = $2, type = $3, value = $4::numeric, currency = $5, updated_at = $6
		 WHERE id = $1`,
		a.ID, a.Name, a.Type, a.Value.String(), a.Currency, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAssetNotFound
	}
	return nil
}

func (r *AssetRepository) SetSoftDeleted(ctx context.Context, id string, deleted bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET soft_deleted = $2, updated_at = now() WHERE id = $1`, id, deleted)
	if err != nil {
		return fmt.Errorf("set asset soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAssetNotFound
	}
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAssetNotFound
	}
	return nil
}
