package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cimillas/flashsale/internal/app"
	"github.com/cimillas/flashsale/internal/domain"
	"github.com/shopspring/decimal"
)

// AdminProductService is the minimal interface needed for the product
// catalog admin surface: product creation sits outside the checkout
// core but is needed to seed it.
type AdminProductService interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// HandleAdminProducts returns an HTTP handler for
// POST/GET /api/admin/products.
func HandleAdminProducts(svc AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			products, err := svc.ListProducts(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]productResponse, 0, len(products))
			for _, p := range products {
				resp = append(resp, productResponse{
					ID: p.ID, Name: p.Name, TotalStock: p.TotalStock,
					Price: p.Price, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
				})
			}
			writeData(w, http.StatusOK, resp)
		case http.MethodPost:
			var req createProductRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			price, err := decimal.NewFromString(req.Price)
			if err != nil {
				writeFieldError(w, http.StatusUnprocessableEntity, "price", "price must be a decimal string")
				return
			}

			product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
				Name:       req.Name,
				TotalStock: req.TotalStock,
				Price:      price,
			})
			if err != nil {
				switch err {
				case domain.ErrProductNameRequired:
					writeFieldError(w, http.StatusUnprocessableEntity, "name", err.Error())
				case domain.ErrInvalidStock:
					writeFieldError(w, http.StatusUnprocessableEntity, "total_stock", err.Error())
				case domain.ErrInvalidPrice:
					writeFieldError(w, http.StatusUnprocessableEntity, "price", err.Error())
				default:
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
				return
			}

			writeData(w, http.StatusCreated, productResponse{
				ID: product.ID, Name: product.Name, TotalStock: product.TotalStock,
				Price: product.Price, CreatedAt: product.CreatedAt, UpdatedAt: product.UpdatedAt,
			})
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type createProductRequest struct {
	Name       string `json:"name"`
	TotalStock int    `json:"total_stock"`
	Price      string `json:"price"`
}
