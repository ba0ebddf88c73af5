package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"finance-dashboard/internal/model"
)

type DeletionLogRepository struct {
	pool *pgxpool.Pool
}

func NewDeletionLogRepository(pool *pgxpool.Pool) *DeletionLogRepository {
	return &DeletionLogRepository{pool: pool}
}

func (r *DeletionLogRepository) Create(ctx context.Context, entry model.DeletionLogEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deletion_log
		 (id, session_id, kind, target_id, target_name, outcome, detail, actor_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.SessionID, entry.Kind, entry.TargetID, entry.TargetName,
		entry.Outcome, entry.Detail, entry.ActorID, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("create deletion log entry: %w", err)
	}
	return nil
}

func (r *DeletionLogRepository) List(ctx context.Context, query model.DeletionLogQuery) ([]model.DeletionLogEntry, int, error) {
	where := []string{"true"}
	args := []any{}

	if query.ActorID != "" {
		args = append(args, query.ActorID)
		where = append(where, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if query.Kind != "" {
		args = append(args, query.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if query.Outcome != "" {
		args = append(args, query.Outcome)
		where = append(where, fmt.Sprintf("outcome = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deletion_log WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deletion log: %w", err)
	}

	page, limit := model.ClampPage(query.Page, query.Limit)
	args = append(args, limit, offset(page, limit))
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, session_id, kind, target_id, target_name, outcome, detail, actor_id, occurred_at
		 FROM deletion_log WHERE %s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`,
			clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list deletion log: %w", err)
	}
	defer rows.Close()

	entries := make([]model.DeletionLogEntry, 0)
	for rows.Next() {
		var e model.DeletionLogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.TargetID, &e.TargetName,
			&e.Outcome, &e.Detail, &e.ActorID, &e.OccurredAt); err != nil {
			return nil, 0, fmt.Errorf("scan deletion log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
