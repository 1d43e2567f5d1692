package app

import (
	"context"
	"log"
)

// CacheInvalidator is the single collaborator every stock-mutating
// engine calls after a successful commit. Implementations must not
// block the caller for long; failures are logged, never propagated.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// invalidateAsync fires the cache invalidation off the calling
// goroutine so a slow or unreachable cache never adds latency to the
// request that just committed. It uses a fresh background context
// because the request context may already be canceled by the time the
// after-commit hook runs.
func invalidateAsync(inv CacheInvalidator, logger *log.Logger, productID string) {
	if inv == nil {
		return
	}
	go func() {
		if err := inv.Invalidate(context.Background(), productID); err != nil {
			logf(logger, "cache invalidate failed product_id=%s err=%v", productID, err)
		}
	}()
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf(format, args...)
}
