package app

import (
	"context"

	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/domain"
	"github.com/shopspring/decimal"
)

// AdminProductRepository is the slice of the product store the
// catalog admin surface needs.
type AdminProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
}

// AdminService seeds the product catalog the flash-sale core operates
// on. Every checkout flow presupposes a pre-existing Product row, and
// the core has no other path to create one.
type AdminService struct {
	products AdminProductRepository
	clock    clock.Clock
}

func NewAdminService(products AdminProductRepository, clk clock.Clock) *AdminService {
	return &AdminService{products: products, clock: clk}
}

type CreateProductInput struct {
	Name       string
	TotalStock int
	Price      decimal.Decimal
}

func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	if in.TotalStock < 0 {
		return domain.Product{}, domain.ErrInvalidStock
	}
	if in.Price.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:         newUUID(),
		Name:       in.Name,
		TotalStock: in.TotalStock,
		Price:      in.Price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *AdminService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}
