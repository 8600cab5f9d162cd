package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a completed checkout. Orders are created exactly once per
// successful checkout and are immutable thereafter; the store only ever
// inserts.
type Order struct {
	ID          string
	Total       decimal.Decimal
	Shipping    decimal.Decimal
	Destination string
	UserID      string
	CreatedAt   time.Time
}

// Repository defines persistence operations for orders. Create assigns the
// generated order ID and creation timestamp on the passed Order.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}
