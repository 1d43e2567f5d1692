package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
	"github.com/shopspring/decimal"
)

func TestOrderService_CreateOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	makeSvc := func(holds map[string]domain.Hold, products map[string]domain.Product) (*OrderService, *fakeOrderHoldRepo, *fakeOrderRepo, *fakeReconcileDispatcher) {
		hr := newFakeOrderHoldRepo(holds)
		pr := newFakeOrderProductRepo(products)
		or := newFakeOrderRepo()
		rd := newFakeReconcileDispatcher()
		svc := NewOrderService(hr, pr, or, rd, clock.NewFixed(now))
		return svc, hr, or, rd
	}

	t.Run("creates order, completes hold, dispatches reconciliation", func(t *testing.T) {
		svc, hr, or, rd := makeSvc(
			map[string]domain.Hold{
				"hold-1": {ID: "hold-1", ProductID: "prod-1", Qty: 3, Status: domain.HoldStatusPending},
			},
			map[string]domain.Product{
				"prod-1": {ID: "prod-1", Price: decimal.NewFromFloat(9.99)},
			},
		)

		order, err := svc.CreateOrder(context.Background(), "hold-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.HoldID != "hold-1" {
			t.Fatalf("expected hold_id hold-1, got %s", order.HoldID)
		}
		wantTotal := decimal.NewFromFloat(9.99).Mul(decimal.NewFromInt(3)).Round(2)
		if !order.TotalAmount.Equal(wantTotal) {
			t.Fatalf("expected total %s, got %s", wantTotal, order.TotalAmount)
		}
		if hr.holds["hold-1"].Status != domain.HoldStatusCompleted {
			t.Fatalf("expected hold completed, got %s", hr.holds["hold-1"].Status)
		}
		if len(or.orders) != 1 {
			t.Fatalf("expected 1 order created, got %d", len(or.orders))
		}
		if len(rd.enqueued) != 1 || rd.enqueued[0] != order.ID {
			t.Fatalf("expected reconciliation enqueued for %s, got %v", order.ID, rd.enqueued)
		}
	})

	t.Run("non-pending hold returns invalid", func(t *testing.T) {
		svc, _, or, rd := makeSvc(
			map[string]domain.Hold{
				"hold-1": {ID: "hold-1", ProductID: "prod-1", Qty: 3, Status: domain.HoldStatusExpired},
			},
			map[string]domain.Product{"prod-1": {ID: "prod-1", Price: decimal.NewFromInt(1)}},
		)

		_, err := svc.CreateOrder(context.Background(), "hold-1")
		if err != domain.ErrHoldInvalid {
			t.Fatalf("expected ErrHoldInvalid, got %v", err)
		}
		if len(or.orders) != 0 {
			t.Fatalf("expected no order created")
		}
		if len(rd.enqueued) != 0 {
			t.Fatalf("expected nothing dispatched on failure, got %v", rd.enqueued)
		}
	})

	t.Run("duplicate order for same hold is rejected", func(t *testing.T) {
		svc, _, or, rd := makeSvc(
			map[string]domain.Hold{
				"hold-1": {ID: "hold-1", ProductID: "prod-1", Qty: 1, Status: domain.HoldStatusPending},
			},
			map[string]domain.Product{"prod-1": {ID: "prod-1", Price: decimal.NewFromInt(1)}},
		)
		or.existingHoldIDs = map[string]bool{"hold-1": true}

		_, err := svc.CreateOrder(context.Background(), "hold-1")
		if err != domain.ErrOrderAlreadyExists {
			t.Fatalf("expected ErrOrderAlreadyExists, got %v", err)
		}
		if len(rd.enqueued) != 0 {
			t.Fatalf("expected nothing dispatched, got %v", rd.enqueued)
		}
	})

	t.Run("dispatch never fires when transaction fails", func(t *testing.T) {
		svc, _, _, rd := makeSvc(
			map[string]domain.Hold{},
			map[string]domain.Product{},
		)

		_, err := svc.CreateOrder(context.Background(), "missing-hold")
		if err == nil {
			t.Fatalf("expected error for missing hold")
		}
		if len(rd.enqueued) != 0 {
			t.Fatalf("expected no dispatch on rolled-back transaction, got %v", rd.enqueued)
		}
	})
}

type fakeOrderHoldRepo struct {
	mu    sync.Mutex
	holds map[string]domain.Hold
}

func newFakeOrderHoldRepo(holds map[string]domain.Hold) *fakeOrderHoldRepo {
	cp := make(map[string]domain.Hold, len(holds))
	for k, v := range holds {
		cp[k] = v
	}
	return &fakeOrderHoldRepo{holds: cp}
}

func (f *fakeOrderHoldRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeOrderHoldRepo) LockPending(_ context.Context, id string) (domain.Hold, error) {
	hold, ok := f.holds[id]
	if !ok {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	if hold.Status != domain.HoldStatusPending {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return hold, nil
}

func (f *fakeOrderHoldRepo) UpdateStatus(_ context.Context, id string, status domain.HoldStatus, now time.Time) error {
	hold, ok := f.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}
	hold.Status = status
	hold.UpdatedAt = now
	f.holds[id] = hold
	return nil
}

type fakeOrderProductRepo struct {
	products map[string]domain.Product
}

func newFakeOrderProductRepo(products map[string]domain.Product) *fakeOrderProductRepo {
	cp := make(map[string]domain.Product, len(products))
	for k, v := range products {
		cp[k] = v
	}
	return &fakeOrderProductRepo{products: cp}
}

func (f *fakeOrderProductRepo) LockForUpdate(_ context.Context, id string) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

type fakeOrderRepo struct {
	orders          []domain.Order
	existingHoldIDs map[string]bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{existingHoldIDs: map[string]bool{}}
}

func (f *fakeOrderRepo) Create(_ context.Context, order domain.Order) error {
	if f.existingHoldIDs[order.HoldID] {
		return domain.ErrOrderAlreadyExists
	}
	f.orders = append(f.orders, order)
	return nil
}

type fakeReconcileDispatcher struct {
	enqueued []string
}

func newFakeReconcileDispatcher() *fakeReconcileDispatcher {
	return &fakeReconcileDispatcher{}
}

func (f *fakeReconcileDispatcher) Enqueue(orderID string) {
	f.enqueued = append(f.enqueued, orderID)
}
