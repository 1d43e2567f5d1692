package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *HoldRepository) Create(ctx context.Context, h domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, product_id, qty, status, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, h.ID, h.ProductID, h.Qty, h.Status, h.ExpiresAt, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) Get(ctx context.Context, id string) (domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, created_at, updated_at
FROM holds WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// Lock reads a Hold row with an exclusive row lock and no status
// filter, for use by the webhook engine.
func (r *HoldRepository) Lock(ctx context.Context, id string) (domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, created_at, updated_at
FROM holds WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

// LockPending reads a Hold row with an exclusive row lock, filtered to
// status = 'pending'. Used by the order engine and the sweeper so a
// concurrent writer that already moved the hold out of pending loses
// the race cleanly (not-found) instead of double-applying.
func (r *HoldRepository) LockPending(ctx context.Context, id string) (domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, created_at, updated_at
FROM holds WHERE id = $1 AND status = 'pending' FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *HoldRepository) UpdateStatus(ctx context.Context, id string, status domain.HoldStatus, now time.Time) error {
	const stmt = `UPDATE holds SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, id, status, now)
	if err != nil {
		return fmt.Errorf("update hold status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// ListExpiredPending returns pending holds whose deadline has passed,
// without locking them. The sweeper re-locks each one individually
// with LockPending before mutating it, so a hold that a concurrent
// order or webhook already claimed is simply skipped.
func (r *HoldRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, created_at, updated_at
FROM holds WHERE status = 'pending' AND expires_at <= $1
ORDER BY expires_at ASC`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.ProductID, &h.Qty, &h.Status, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate holds: %w", rows.Err())
	}
	return holds, nil
}

func (r *HoldRepository) scanOne(ctx context.Context, query string, id string) (domain.Hold, error) {
	var h domain.Hold
	err := r.queryRow(ctx, query, id).
		Scan(&h.ID, &h.ProductID, &h.Qty, &h.Status, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	return h, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
