package app

import (
	"context"
	"log"
	"time"

	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
)

// ReconcileOrderRepository is the slice of the order store the
// reconciliation service needs.
type ReconcileOrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Get(ctx context.Context, id string) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, now time.Time) error
}

// ReconcileHoldRepository is the slice of the hold store the
// reconciliation service needs.
type ReconcileHoldRepository interface {
	Get(ctx context.Context, id string) (domain.Hold, error)
}

// ReconcileProductRepository is the slice of the product store the
// reconciliation service needs to restore stock on a parked failed
// payment.
type ReconcileProductRepository interface {
	LockForUpdate(ctx context.Context, id string) (domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int, now time.Time) error
}

// ReconcileWebhookRepository is the slice of the pending-webhook
// store the reconciliation service needs.
type ReconcileWebhookRepository interface {
	GetPendingByHoldID(ctx context.Context, holdID string) (*domain.PendingWebhook, error)
	DeletePending(ctx context.Context, id string) error
}

// ReconcileService joins a parked payment result with the order that
// was just created for its hold.
type ReconcileService struct {
	orders   ReconcileOrderRepository
	holds    ReconcileHoldRepository
	products ReconcileProductRepository
	webhooks ReconcileWebhookRepository
	cache    CacheInvalidator
	clock    clock.Clock
	logger   *log.Logger
}

func NewReconcileService(orders ReconcileOrderRepository, holds ReconcileHoldRepository, products ReconcileProductRepository, webhooks ReconcileWebhookRepository, cache CacheInvalidator, clk clock.Clock, logger *log.Logger) *ReconcileService {
	return &ReconcileService{
		orders:   orders,
		holds:    holds,
		products: products,
		webhooks: webhooks,
		cache:    cache,
		clock:    clk,
		logger:   logger,
	}
}

// Reconcile is safe to call more than once for the same orderID
// (at-least-once dispatch): the second call finds no PendingWebhook
// row (it was deleted by the first) and no-ops. It is likewise safe
// if the webhook handler already applied the result directly to the
// order, since again no PendingWebhook row survives.
func (s *ReconcileService) Reconcile(ctx context.Context, orderID string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	var restoredProductID string

	err = s.orders.WithTx(ctx, func(txCtx context.Context) error {
		pending, err := s.webhooks.GetPendingByHoldID(txCtx, order.HoldID)
		if err != nil {
			return err
		}
		if pending == nil {
			return nil
		}

		// Read status before deleting the row: reading it after delete
		// would be a use-after-free.
		status := pending.Status

		if err := s.orders.UpdateStatus(txCtx, order.ID, domain.OrderStatus(status), now); err != nil {
			return err
		}
		if err := s.webhooks.DeletePending(txCtx, pending.ID); err != nil {
			return err
		}

		if status == domain.WebhookStatusFailed {
			hold, err := s.holds.Get(txCtx, order.HoldID)
			if err != nil {
				return err
			}
			if _, err := s.products.LockForUpdate(txCtx, hold.ProductID); err != nil {
				return err
			}
			if err := s.products.AdjustStock(txCtx, hold.ProductID, hold.Qty, now); err != nil {
				return err
			}
			restoredProductID = hold.ProductID
		}
		return nil
	})
	if err != nil {
		return err
	}

	if restoredProductID != "" {
		invalidateAsync(s.cache, s.logger, restoredProductID)
	}
	return nil
}
