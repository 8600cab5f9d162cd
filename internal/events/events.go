// Package events publishes checkout lifecycle events for downstream
// consumers (notifications, analytics, fulfilment). Publishing is
// fire-and-forget: a publish failure is logged and never fails the checkout
// that produced it.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreated is emitted once per successful checkout.
type OrderCreated struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"uid"`
	Destination string          `json:"destination"`
	Total       decimal.Decimal `json:"total_price"`
	Shipping    decimal.Decimal `json:"shipping"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Publisher emits checkout events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, e OrderCreated) error
}

// Noop discards all events. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishOrderCreated(context.Context, OrderCreated) error { return nil }
