package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
)

// WebhookHoldRepository is the slice of the hold store the webhook
// engine needs: an unfiltered lock, since a webhook may legitimately
// arrive for a hold in any status.
type WebhookHoldRepository interface {
	Lock(ctx context.Context, id string) (domain.Hold, error)
}

// WebhookOrderRepository is the slice of the order store the webhook
// engine needs.
type WebhookOrderRepository interface {
	GetByHoldID(ctx context.Context, holdID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, now time.Time) error
}

// WebhookProductRepository is the slice of the product store the
// webhook engine needs to restore stock on a failed payment.
type WebhookProductRepository interface {
	LockForUpdate(ctx context.Context, id string) (domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int, now time.Time) error
}

// WebhookRepository is the slice of the webhook store (WebhookLog +
// PendingWebhook) the webhook engine needs.
type WebhookRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetLog(ctx context.Context, idempotencyKey string) (*domain.WebhookLog, error)
	InsertLog(ctx context.Context, log domain.WebhookLog) error
	GetPendingByHoldID(ctx context.Context, holdID string) (*domain.PendingWebhook, error)
	InsertPending(ctx context.Context, pw domain.PendingWebhook) error
}

// WebhookService is the idempotent payment-result processor.
type WebhookService struct {
	webhooks WebhookRepository
	holds    WebhookHoldRepository
	orders   WebhookOrderRepository
	products WebhookProductRepository
	cache    CacheInvalidator
	clock    clock.Clock
	logger   *log.Logger
}

func NewWebhookService(webhooks WebhookRepository, holds WebhookHoldRepository, orders WebhookOrderRepository, products WebhookProductRepository, cache CacheInvalidator, clk clock.Clock, logger *log.Logger) *WebhookService {
	return &WebhookService{
		webhooks: webhooks,
		holds:    holds,
		orders:   orders,
		products: products,
		cache:    cache,
		clock:    clk,
		logger:   logger,
	}
}

// WebhookResult is the prepared response: the bytes the caller
// returns verbatim and the HTTP status to send with them.
type WebhookResult struct {
	Body       []byte
	StatusCode int
}

// webhookSuccessBody is the 200 response shape: { data: {hold_id,
// status} }.
type webhookSuccessBody struct {
	Data webhookSuccessData `json:"data"`
}

type webhookSuccessData struct {
	HoldID string               `json:"hold_id"`
	Status domain.WebhookStatus `json:"status"`
}

// webhookNotFoundBody is the 404 response shape: { msg: "..." },
// with no data envelope.
type webhookNotFoundBody struct {
	Msg string `json:"msg"`
}

// HandleWebhook is idempotent on idempotencyKey: a sealed WebhookLog
// row short-circuits everything below it, including re-derivation of
// the response.
func (s *WebhookService) HandleWebhook(ctx context.Context, idempotencyKey string, holdID string, status domain.WebhookStatus) (WebhookResult, error) {
	if sealed, err := s.webhooks.GetLog(ctx, idempotencyKey); err != nil {
		return WebhookResult{}, err
	} else if sealed != nil {
		return WebhookResult{Body: sealed.ResponseBody, StatusCode: sealed.ResponseStatusCode}, nil
	}

	now := s.clock.Now()
	var result WebhookResult
	var restoredProductID string

	err := s.webhooks.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.holds.Lock(txCtx, holdID)
		if err != nil {
			if err == domain.ErrHoldNotFound {
				result = notFoundResult(holdID)
				return s.sealLog(txCtx, idempotencyKey, result, now)
			}
			return err
		}

		existingOrder, err := s.orders.GetByHoldID(txCtx, holdID)
		if err != nil {
			return err
		}

		if existingOrder != nil {
			if err := s.orders.UpdateStatus(txCtx, existingOrder.ID, domain.OrderStatus(status), now); err != nil {
				return err
			}
			if status == domain.WebhookStatusFailed {
				if _, err := s.products.LockForUpdate(txCtx, hold.ProductID); err != nil {
					return err
				}
				if err := s.products.AdjustStock(txCtx, hold.ProductID, hold.Qty, now); err != nil {
					return err
				}
				restoredProductID = hold.ProductID
			}
		} else {
			// A failed result parked here is restored once, by
			// ReconcileService when the order eventually shows up —
			// restoring it here too would double-restore stock.
			pending := domain.PendingWebhook{
				ID:        newUUID(),
				HoldID:    holdID,
				Status:    status,
				CreatedAt: now,
			}
			if err := s.webhooks.InsertPending(txCtx, pending); err != nil {
				return err
			}
		}

		result = WebhookResult{
			Body:       mustMarshal(webhookSuccessBody{Data: webhookSuccessData{HoldID: holdID, Status: status}}),
			StatusCode: http.StatusOK,
		}
		return s.sealLog(txCtx, idempotencyKey, result, now)
	})
	if err != nil {
		if err == domain.ErrWebhookLogSealed {
			sealed, getErr := s.webhooks.GetLog(ctx, idempotencyKey)
			if getErr != nil {
				return WebhookResult{}, getErr
			}
			if sealed != nil {
				return WebhookResult{Body: sealed.ResponseBody, StatusCode: sealed.ResponseStatusCode}, nil
			}
		}
		return WebhookResult{}, err
	}

	if restoredProductID != "" {
		invalidateAsync(s.cache, s.logger, restoredProductID)
	}
	return result, nil
}

func (s *WebhookService) sealLog(ctx context.Context, idempotencyKey string, result WebhookResult, now time.Time) error {
	return s.webhooks.InsertLog(ctx, domain.WebhookLog{
		IdempotencyKey:     idempotencyKey,
		ResponseBody:       result.Body,
		ResponseStatusCode: result.StatusCode,
		CreatedAt:          now,
	})
}

func notFoundResult(holdID string) WebhookResult {
	return WebhookResult{
		Body:       mustMarshal(webhookNotFoundBody{Msg: "Hold not found"}),
		StatusCode: http.StatusNotFound,
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`{}`)
	}
	return b
}
