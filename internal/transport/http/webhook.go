package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cimillas/flashsale/internal/app"
	"github.com/cimillas/flashsale/internal/domain"
)

// WebhookHandler is the minimal interface needed to process a payment
// webhook delivery.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, idempotencyKey string, holdID string, status domain.WebhookStatus) (app.WebhookResult, error)
}

// HandlePaymentWebhook returns an HTTP handler for
// POST /api/payments/webhook.
func HandlePaymentWebhook(svc WebhookHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req webhookRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.IdempotencyKey == "" {
			writeFieldError(w, http.StatusUnprocessableEntity, "idempotency_key", "idempotency_key is required")
			return
		}
		if req.Data.HoldID == "" {
			writeFieldError(w, http.StatusUnprocessableEntity, "data.hold_id", "data.hold_id is required")
			return
		}
		status, ok := domain.ParseWebhookStatus(req.Data.Status)
		if !ok {
			writeFieldError(w, http.StatusUnprocessableEntity, "data.status", domain.ErrInvalidWebhookStatus.Error())
			return
		}

		result, err := svc.HandleWebhook(r.Context(), req.IdempotencyKey, req.Data.HoldID, status)
		if err != nil {
			switch err {
			case domain.ErrWebhookConflict:
				writeError(w, http.StatusConflict, "webhook_conflict", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(result.StatusCode)
		_, _ = w.Write(result.Body)
	}
}

type webhookRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Data           struct {
		HoldID string `json:"hold_id"`
		Status string `json:"status"`
	} `json:"data"`
}
