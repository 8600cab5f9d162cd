package shipping

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote describes a shipment to be priced.
type Quote struct {
	Destination    string
	Subtotal       decimal.Decimal
	Carrier        string
	DeliveryWindow time.Duration
}

// Calculator prices a shipment. It is a replaceable strategy, not a fixed
// business rule: the default implementation is a flat rate, but carriers with
// real rate cards can be dropped in without touching the checkout flow.
type Calculator interface {
	Cost(ctx context.Context, q Quote) (decimal.Decimal, error)
}

// FlatRate charges the same rate for every shipment regardless of
// destination, carrier, or delivery window.
type FlatRate struct {
	Rate decimal.Decimal
}

func (f FlatRate) Cost(context.Context, Quote) (decimal.Decimal, error) {
	return f.Rate, nil
}
