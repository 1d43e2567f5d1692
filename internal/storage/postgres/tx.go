package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}
type hooksKey struct{}

// withTx runs fn inside a transaction bound to ctx. Nested calls (a
// transaction already present on ctx) reuse it rather than opening a
// second one, so repositories can compose without knowing who started
// the outermost scope.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	hooks := &[]func(){}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	txCtx = context.WithValue(txCtx, hooksKey{}, hooks)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	for _, hook := range *hooks {
		hook()
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// AfterCommit registers fn to run once the enclosing transaction
// commits successfully. It never runs if the transaction rolls back.
// Outside of any transaction, fn runs immediately (best effort).
func AfterCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(hooksKey{}).(*[]func())
	if !ok {
		fn()
		return
	}
	*hooks = append(*hooks, fn)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// IsRetryable reports whether err is a serialization failure or
// deadlock that a caller may retry (spec's Store-level "Conflict").
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
