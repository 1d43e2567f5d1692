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

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ProductRepository) Create(ctx context.Context, p domain.Product) error {
	const stmt = `
INSERT INTO products (id, name, total_stock, price, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, stmt, p.ID, p.Name, p.TotalStock, p.Price, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	const query = `
SELECT id, name, total_stock, price, created_at, updated_at
FROM products WHERE id = $1`

	var p domain.Product
	err := r.queryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.TotalStock, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// LockForUpdate reads a Product row with an exclusive row lock. It
// must run inside a transaction (see WithTx).
func (r *ProductRepository) LockForUpdate(ctx context.Context, id string) (domain.Product, error) {
	const query = `
SELECT id, name, total_stock, price, created_at, updated_at
FROM products WHERE id = $1 FOR UPDATE`

	var p domain.Product
	err := r.queryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.TotalStock, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int, now time.Time) error {
	const stmt = `UPDATE products SET total_stock = total_stock + $2, updated_at = $3 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, id, delta, now)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `
SELECT id, name, total_stock, price, created_at, updated_at
FROM products ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.TotalStock, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return products, nil
}

func (r *ProductRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ProductRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
