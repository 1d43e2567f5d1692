package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cimillas/flashsale/internal/app"
	"github.com/cimillas/flashsale/internal/domain"
)

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (app.CreateHoldResult, error)
}

// HandleCreateHold returns an HTTP handler for POST /api/holds.
func HandleCreateHold(svc HoldCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		result, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			ProductID: req.ProductID,
			Qty:       req.Qty,
		})
		if err != nil {
			switch err {
			case domain.ErrInvalidQuantity:
				writeFieldError(w, http.StatusUnprocessableEntity, "qty", err.Error())
			case domain.ErrProductNotFound, domain.ErrInvalidID:
				writeFieldError(w, http.StatusUnprocessableEntity, "product_id", "product does not exist")
			case domain.ErrInsufficientStock:
				writeFieldError(w, http.StatusUnprocessableEntity, "qty", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeData(w, http.StatusCreated, createHoldResponse{
			HoldID:    result.HoldID,
			ExpiresAt: result.ExpiresAt,
		})
	}
}

type createHoldRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type createHoldResponse struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
