package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookRepository owns both the WebhookLog (sealed responses) and
// PendingWebhook (parked early payment results) tables. They are
// managed together because the webhook and reconciliation flows read
// or write both inside the same transaction.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetLog looks up a sealed response by idempotency key. A nil result
// with no error means the key has never been seen.
func (r *WebhookRepository) GetLog(ctx context.Context, idempotencyKey string) (*domain.WebhookLog, error) {
	const query = `
SELECT idempotency_key, response_body, response_status_code, created_at
FROM webhook_logs WHERE idempotency_key = $1`

	var log domain.WebhookLog
	err := r.queryRow(ctx, query, idempotencyKey).
		Scan(&log.IdempotencyKey, &log.ResponseBody, &log.ResponseStatusCode, &log.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook log: %w", err)
	}
	return &log, nil
}

// InsertLog seals a response under idempotencyKey. If a concurrent
// delivery with the same key won the race and sealed it first, the
// unique violation is returned as domain.ErrWebhookLogSealed; the
// caller re-reads that sealed row to return a byte-identical response.
func (r *WebhookRepository) InsertLog(ctx context.Context, log domain.WebhookLog) error {
	const stmt = `
INSERT INTO webhook_logs (idempotency_key, response_body, response_status_code, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, log.IdempotencyKey, log.ResponseBody, log.ResponseStatusCode, log.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrWebhookLogSealed
		}
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}

// GetPendingByHoldID looks up a parked payment result for hold. A nil
// result with no error means none is parked.
func (r *WebhookRepository) GetPendingByHoldID(ctx context.Context, holdID string) (*domain.PendingWebhook, error) {
	const query = `
SELECT id, hold_id, status, created_at
FROM pending_webhooks WHERE hold_id = $1`

	var pw domain.PendingWebhook
	var status string
	err := r.queryRow(ctx, query, holdID).
		Scan(&pw.ID, &pw.HoldID, &status, &pw.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending webhook: %w", err)
	}
	pw.Status = domain.WebhookStatus(status)
	return &pw, nil
}

// InsertPending parks a payment result for a hold with no order yet.
// The unique constraint on hold_id maps a second, distinct early
// payment attempt to domain.ErrWebhookConflict.
func (r *WebhookRepository) InsertPending(ctx context.Context, pw domain.PendingWebhook) error {
	const stmt = `
INSERT INTO pending_webhooks (id, hold_id, status, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, pw.ID, pw.HoldID, pw.Status, pw.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrWebhookConflict
		}
		return fmt.Errorf("insert pending webhook: %w", err)
	}
	return nil
}

// DeletePending consumes (removes) a parked payment result. Called by
// reconciliation once it has applied the result to the order.
func (r *WebhookRepository) DeletePending(ctx context.Context, id string) error {
	const stmt = `DELETE FROM pending_webhooks WHERE id = $1`
	_, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete pending webhook: %w", err)
	}
	return nil
}

func (r *WebhookRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *WebhookRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
