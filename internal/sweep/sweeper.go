// Package sweep implements the periodic reclamation of stock held by
// pending holds whose deadline has passed.
package sweep

import (
	"context"
	"log"
	"time"

	"github.com/cimillas/flashsale/internal/app"
	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
)

// HoldRepository is the slice of the hold store the sweeper needs.
type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Hold, error)
	LockPending(ctx context.Context, id string) (domain.Hold, error)
	UpdateStatus(ctx context.Context, id string, status domain.HoldStatus, now time.Time) error
}

// ProductRepository is the slice of the product store the sweeper
// needs to restore reclaimed stock.
type ProductRepository interface {
	LockForUpdate(ctx context.Context, id string) (domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int, now time.Time) error
}

const defaultSweepInterval = 60 * time.Second

// Sweeper periodically reclaims stock from expired pending holds.
type Sweeper struct {
	holds    HoldRepository
	products ProductRepository
	cache    app.CacheInvalidator
	clock    clock.Clock
	logger   *log.Logger
	interval time.Duration
}

func New(holds HoldRepository, products ProductRepository, cache app.CacheInvalidator, clk clock.Clock, logger *log.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		holds:    holds,
		products: products,
		cache:    cache,
		clock:    clk,
		logger:   logger,
		interval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*Sweeper)

// WithInterval overrides SWEEP_INTERVAL (default 60s).
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Sweep runs one pass over pending holds whose expires_at has passed.
// It returns the number of holds it actually expired. Holds that a
// concurrent order or webhook already moved out of pending are
// skipped by the re-check under lock, never double-counted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()

	candidates, err := s.holds.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		var productID string
		var qty int

		err := s.holds.WithTx(ctx, func(txCtx context.Context) error {
			hold, err := s.holds.LockPending(txCtx, candidate.ID)
			if err != nil {
				if err == domain.ErrHoldNotFound {
					// A concurrent order or webhook already claimed it.
					return nil
				}
				return err
			}
			if err := s.holds.UpdateStatus(txCtx, hold.ID, domain.HoldStatusExpired, now); err != nil {
				return err
			}
			if _, err := s.products.LockForUpdate(txCtx, hold.ProductID); err != nil {
				return err
			}
			if err := s.products.AdjustStock(txCtx, hold.ProductID, hold.Qty, now); err != nil {
				return err
			}
			productID, qty = hold.ProductID, hold.Qty
			return nil
		})
		if err != nil {
			return expired, err
		}
		if productID == "" {
			continue
		}

		expired++
		if s.logger != nil {
			s.logger.Printf("sweeper: expired hold_id=%s product_id=%s qty=%d", candidate.ID, productID, qty)
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, productID); err != nil && s.logger != nil {
				s.logger.Printf("sweeper: cache invalidate failed product_id=%s err=%v", productID, err)
			}
		}
	}
	return expired, nil
}

// Run drives Sweep on a ticker at the configured interval until ctx is
// canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && s.logger != nil {
				s.logger.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}
