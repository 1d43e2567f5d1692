package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductGetter is the minimal interface needed to serve a product
// detail lookup.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// HandleGetProduct returns an HTTP handler for GET /api/products/{id}.
func HandleGetProduct(svc ProductGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			switch err {
			case domain.ErrProductNotFound, domain.ErrInvalidID:
				writeError(w, http.StatusNotFound, codeNotFound, "product not found")
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeData(w, http.StatusOK, productResponse{
			ID:         product.ID,
			Name:       product.Name,
			TotalStock: product.TotalStock,
			Price:      product.Price,
			CreatedAt:  product.CreatedAt,
			UpdatedAt:  product.UpdatedAt,
		})
	}
}

type productResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	TotalStock int             `json:"total_stock"`
	Price      decimal.Decimal `json:"price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
