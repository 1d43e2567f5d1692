package app

import (
	"context"
	"log"

	"github.com/cimillas/flashsale/internal/domain"
)

// ProductReader is the minimal store collaborator for a cache miss.
type ProductReader interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// ProductCache is a narrow collaborator this service populates on
// miss and that the stock-mutating engines invalidate on every stock
// mutation. Its lookup policy is incidental; only the invalidation
// hook is load-bearing (see DESIGN.md).
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, bool)
	Set(ctx context.Context, product domain.Product)
}

// ProductService implements the GET /products/{id} read path: a
// cache-then-store lookup. It is a thin pass-through the core needs to
// expose invalidation hooks against.
type ProductService struct {
	store  ProductReader
	cache  ProductCache
	logger *log.Logger
}

func NewProductService(store ProductReader, cache ProductCache, logger *log.Logger) *ProductService {
	return &ProductService{store: store, cache: cache, logger: logger}
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, id); ok {
			return *cached, nil
		}
	}

	product, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, product)
	}
	return product, nil
}
