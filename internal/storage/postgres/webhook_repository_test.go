package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/cimillas/flashsale/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestWebhookRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewWebhookRepository(pool)

	t.Run("InsertLog then GetLog round-trip, duplicate seals to ErrWebhookLogSealed", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		now := time.Now().UTC().Truncate(time.Microsecond)

		log := domain.WebhookLog{
			IdempotencyKey:     "key-1",
			ResponseBody:       []byte(`{"data":{"hold_id":"hold-1","status":"paid"}}`),
			ResponseStatusCode: 200,
			CreatedAt:          now,
		}
		if err := repo.InsertLog(ctx, log); err != nil {
			t.Fatalf("insert log: %v", err)
		}

		got, err := repo.GetLog(ctx, "key-1")
		if err != nil {
			t.Fatalf("get log: %v", err)
		}
		if got == nil || string(got.ResponseBody) != string(log.ResponseBody) || got.ResponseStatusCode != 200 {
			t.Fatalf("unexpected log: %+v", got)
		}

		if err := repo.InsertLog(ctx, log); err != domain.ErrWebhookLogSealed {
			t.Fatalf("expected ErrWebhookLogSealed on duplicate key, got %v", err)
		}
	})

	t.Run("GetLog returns nil, nil for unseen key", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		log, err := repo.GetLog(ctx, "never-seen")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if log != nil {
			t.Fatalf("expected nil, got %+v", log)
		}
	})

	t.Run("InsertPending then DeletePending consumes the row, duplicate rejected", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Widget", 10, decimal.NewFromInt(1))
		holdID := testutil.InsertHold(t, ctx, pool, productID, 1, domain.HoldStatusPending, time.Now().Add(time.Minute))
		now := time.Now().UTC().Truncate(time.Microsecond)

		pending := domain.PendingWebhook{
			ID:        "11111111-1111-1111-1111-111111111111",
			HoldID:    holdID,
			Status:    domain.WebhookStatusPaid,
			CreatedAt: now,
		}
		if err := repo.InsertPending(ctx, pending); err != nil {
			t.Fatalf("insert pending: %v", err)
		}

		got, err := repo.GetPendingByHoldID(ctx, holdID)
		if err != nil {
			t.Fatalf("get pending: %v", err)
		}
		if got == nil || got.Status != domain.WebhookStatusPaid {
			t.Fatalf("unexpected pending webhook: %+v", got)
		}

		dup := pending
		dup.ID = "22222222-2222-2222-2222-222222222222"
		if err := repo.InsertPending(ctx, dup); err != domain.ErrWebhookConflict {
			t.Fatalf("expected ErrWebhookConflict for second pending row on same hold, got %v", err)
		}

		if err := repo.DeletePending(ctx, pending.ID); err != nil {
			t.Fatalf("delete pending: %v", err)
		}

		got, err = repo.GetPendingByHoldID(ctx, holdID)
		if err != nil {
			t.Fatalf("get pending after delete: %v", err)
		}
		if got != nil {
			t.Fatalf("expected pending consumed, got %+v", got)
		}
	})
}
