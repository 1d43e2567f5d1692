package app

import (
	"context"
	"log"
	"time"

	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
)

// HoldProductRepository is the slice of the product store the hold
// engine needs: lock-and-read for the stock check, adjust to commit
// the decrement.
type HoldProductRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockForUpdate(ctx context.Context, id string) (domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int, now time.Time) error
}

// HoldRepository is the slice of the hold store the hold engine needs.
type HoldRepository interface {
	Create(ctx context.Context, hold domain.Hold) error
}

const defaultHoldTTL = 120 * time.Second

// HoldService is the hold engine.
type HoldService struct {
	products HoldProductRepository
	holds    HoldRepository
	cache    CacheInvalidator
	clock    clock.Clock
	logger   *log.Logger
	holdTTL  time.Duration
}

func NewHoldService(products HoldProductRepository, holds HoldRepository, cache CacheInvalidator, clk clock.Clock, logger *log.Logger, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		products: products,
		holds:    holds,
		cache:    cache,
		clock:    clk,
		logger:   logger,
		holdTTL:  defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides HOLD_TTL (default 120s).
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type CreateHoldInput struct {
	ProductID string
	Qty       int
}

type CreateHoldResult struct {
	HoldID    string
	ExpiresAt time.Time
}

// CreateHold locks the product, checks stock, inserts a pending hold,
// and decrements stock, all under one exclusive product-row lock so
// overselling is impossible regardless of how many concurrent holds
// race the same product.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (CreateHoldResult, error) {
	if in.Qty <= 0 {
		return CreateHoldResult{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result CreateHoldResult

	err := s.products.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.LockForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}
		if product.TotalStock < in.Qty {
			return domain.ErrInsufficientStock
		}

		hold := domain.Hold{
			ID:        newUUID(),
			ProductID: in.ProductID,
			Qty:       in.Qty,
			Status:    domain.HoldStatusPending,
			ExpiresAt: now.Add(s.holdTTL),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.holds.Create(txCtx, hold); err != nil {
			return err
		}
		if err := s.products.AdjustStock(txCtx, in.ProductID, -in.Qty, now); err != nil {
			return err
		}

		result = CreateHoldResult{HoldID: hold.ID, ExpiresAt: hold.ExpiresAt}
		return nil
	})
	if err != nil {
		return CreateHoldResult{}, err
	}

	invalidateAsync(s.cache, s.logger, in.ProductID)
	return result, nil
}
