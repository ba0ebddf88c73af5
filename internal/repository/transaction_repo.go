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

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, COALESCE(asset_id::text, ''), description, amount::text, currency,
	type, category, occurred_at, soft_deleted, created_at, updated_at`

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var amount string
	if err := row.Scan(&t.ID, &t.UserID, &t.AssetID, &t.Description, &amount, &t.Currency,
		&t.Type, &t.Category, &t.OccurredAt, &t.SoftDeleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Transaction{}, err
	}

	parsed, err := parseAmount(amount)
	if err != nil {
		return model.Transaction{}, err
	}
	t.Amount = parsed
	return t, nil
}

// nullableID maps an empty asset reference to SQL NULL.
func nullableID(id string) any {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return id
}

func (r *TransactionRepository) Create(ctx context.Context, t model.Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions
		 (id, user_id, asset_id, description, amount, currency, type, category,
		  occurred_at, soft_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, nullableID(t.AssetID), t.Description, t.Amount.String(), t.Currency, t.Type,
		t.Category, t.OccurredAt, t.SoftDeleted, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transaction{}, model.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) List(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, int, error) {
	where := []string{"user_id = $1"}
	args := []any{query.UserID}

	if !query.IncludeDeleted {
		where = append(where, "soft_deleted = false")
	}
	if query.AssetID != "" {
		args = append(args, query.AssetID)
		where = append(where, fmt.Sprintf("asset_id = $%d", len(args)))
	}
	if query.Type != "" {
		args = append(args, query.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if query.From != nil {
		args = append(args, *query.From)
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if query.To != nil {
		args = append(args, *query.To)
		where = append(where, fmt.Sprintf("occurred_at < $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	page, limit := model.ClampPage(query.Page, query.Limit)
	args = append(args, limit, offset(page, limit))
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY occurred_at DESC, id LIMIT $%d OFFSET $%d`,
			transactionColumns, clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, total, rows.Err()
}

func (r *TransactionRepository) Update(ctx context.Context, t model.Transaction) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions
		 SET description = $2, amount = $3::numeric, currency = $4, type = $5,
		     category = $6, occurred_at = $7, updated_at = $8
		 WHERE id = $1`,
		t.ID, t.Description, t.Amount.String(), t.Currency, t.Type, t.Category, t.OccurredAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) SetSoftDeleted(ctx context.Context, id string, deleted bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET soft_deleted = $2, updated_at = now() WHERE id = $1`, id, deleted)
	if err != nil {
		return fmt.Errorf("set transaction soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}
