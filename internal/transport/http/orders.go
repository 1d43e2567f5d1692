package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderCreator is the minimal interface needed to create an order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, holdID string) (domain.Order, error)
}

// HandleCreateOrder returns an HTTP handler for POST /api/orders.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.HoldID == "" {
			writeFieldError(w, http.StatusUnprocessableEntity, "hold_id", "hold_id is required")
			return
		}

		order, err := svc.CreateOrder(r.Context(), req.HoldID)
		if err != nil {
			switch err {
			case domain.ErrHoldInvalid, domain.ErrHoldNotFound, domain.ErrInvalidID:
				writeFieldError(w, http.StatusUnprocessableEntity, "hold_id", domain.ErrHoldInvalid.Error())
			case domain.ErrOrderAlreadyExists:
				writeFieldError(w, http.StatusUnprocessableEntity, "hold_id", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeData(w, http.StatusCreated, orderResponse{
			ID:          order.ID,
			HoldID:      order.HoldID,
			Status:      string(order.Status),
			TotalAmount: order.TotalAmount,
			CreatedAt:   order.CreatedAt,
			UpdatedAt:   order.UpdatedAt,
		})
	}
}

type createOrderRequest struct {
	HoldID string `json:"hold_id"`
}

type orderResponse struct {
	ID          string          `json:"id"`
	HoldID      string          `json:"hold_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
