package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item with finite stock.
type Product struct {
	ID         string
	Name       string
	TotalStock int
	Price      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
