package inventory

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for inventory operations.
var (
	// ErrInsufficientStock is returned when a decrement would drive a
	// product's stock below zero. The Inventory Service enforces this as a
	// hard constraint; the whole decrement fails atomically.
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
)

// Client is the outbound contract with the Inventory Service, which owns
// stock levels and unit prices per product.
type Client interface {
	// UnitPrice returns the current unit price of a product.
	UnitPrice(ctx context.Context, productID string) (decimal.Decimal, error)
	// DecrementStock atomically subtracts amount from a product's stock.
	// It returns ErrInsufficientStock when the result would be negative.
	DecrementStock(ctx context.Context, productID string, amount int) error
	// IncrementStock atomically adds amount back to a product's stock.
	// Used for compensation; it always succeeds on a known product.
	IncrementStock(ctx context.Context, productID string, amount int) error
}
