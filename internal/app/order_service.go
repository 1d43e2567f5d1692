package app

import (
	"context"
	"time"

	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
	"github.com/cimillas/flashsale/internal/storage/postgres"
)

// OrderHoldRepository is the slice of the hold store the order engine
// needs: lock-and-filter for the pending check, transition to
// completed once the order is in place.
type OrderHoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockPending(ctx context.Context, id string) (domain.Hold, error)
	UpdateStatus(ctx context.Context, id string, status domain.HoldStatus, now time.Time) error
}

// OrderProductRepository is read-only from the order engine's
// perspective: it locks the product row to read a consistent price,
// but never mutates stock (the hold already reserved it).
type OrderProductRepository interface {
	LockForUpdate(ctx context.Context, id string) (domain.Product, error)
}

// OrderRepository is the slice of the order store the order engine
// needs.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
}

// ReconcileDispatcher hands a freshly committed order off to
// asynchronous reconciliation. It must only be called after the
// creating transaction commits — see the after-commit hook below.
type ReconcileDispatcher interface {
	Enqueue(orderID string)
}

// OrderService is the order engine: it turns a pending hold into an
// order.
type OrderService struct {
	holds     OrderHoldRepository
	products  OrderProductRepository
	orders    OrderRepository
	reconcile ReconcileDispatcher
	clock     clock.Clock
}

func NewOrderService(holds OrderHoldRepository, products OrderProductRepository, orders OrderRepository, reconcile ReconcileDispatcher, clk clock.Clock) *OrderService {
	return &OrderService{
		holds:     holds,
		products:  products,
		orders:    orders,
		reconcile: reconcile,
		clock:     clk,
	}
}

// CreateOrder locks the hold filtered to pending, prices the order off
// the product's current price, inserts the order, flips the hold to
// completed, and — only if the whole
// transaction commits — dispatch reconciliation for the new order.
func (s *OrderService) CreateOrder(ctx context.Context, holdID string) (domain.Order, error) {
	now := s.clock.Now()
	var order domain.Order

	err := s.holds.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.holds.LockPending(txCtx, holdID)
		if err != nil {
			if err == domain.ErrHoldNotFound {
				return domain.ErrHoldInvalid
			}
			return err
		}

		product, err := s.products.LockForUpdate(txCtx, hold.ProductID)
		if err != nil {
			return err
		}

		total := product.Price.Mul(decimalFromInt(hold.Qty)).Round(2)

		order = domain.Order{
			ID:          newUUID(),
			HoldID:      holdID,
			Status:      domain.OrderStatusPending,
			TotalAmount: total,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.orders.Create(txCtx, order); err != nil {
			if err == domain.ErrOrderAlreadyExists {
				return domain.ErrOrderAlreadyExists
			}
			return err
		}
		if err := s.holds.UpdateStatus(txCtx, holdID, domain.HoldStatusCompleted, now); err != nil {
			return err
		}

		dispatchOrderID := order.ID
		postgres.AfterCommit(txCtx, func() {
			s.reconcile.Enqueue(dispatchOrderID)
		})
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
