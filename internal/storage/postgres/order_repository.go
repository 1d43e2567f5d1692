package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) Create(ctx context.Context, o domain.Order) error {
	const stmt = `
INSERT INTO orders (id, hold_id, status, total_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, o.ID, o.HoldID, o.Status, o.TotalAmount, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderAlreadyExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrHoldNotFound
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	const query = `
SELECT id, hold_id, status, total_amount, created_at, updated_at
FROM orders WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *OrderRepository) GetByHoldID(ctx context.Context, holdID string) (*domain.Order, error) {
	const query = `
SELECT id, hold_id, status, total_amount, created_at, updated_at
FROM orders WHERE hold_id = $1`

	o, err := r.scanOne(ctx, query, holdID)
	if err != nil {
		if err == domain.ErrOrderNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, now time.Time) error {
	const stmt = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, id, status, now)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) scanOne(ctx context.Context, query string, arg string) (domain.Order, error) {
	var o domain.Order
	var total decimal.Decimal
	err := r.queryRow(ctx, query, arg).
		Scan(&o.ID, &o.HoldID, &o.Status, &total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.TotalAmount = total
	return o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
