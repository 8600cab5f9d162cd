package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrDeclined is returned when a charge is refused by the payment provider.
var ErrDeclined = errors.New("payment declined")

// Processor charges the given identity for the given amount. Implementations
// wrap an external payment provider; the checkout flow treats a returned
// error as a declined payment and compensates fully.
type Processor interface {
	Charge(ctx context.Context, identity string, amount decimal.Decimal) error
}

// Stub is a Processor that approves every charge, or fails every charge with
// Err when set. It stands in for the real provider integration.
type Stub struct {
	Err error
}

func (s Stub) Charge(context.Context, string, decimal.Decimal) error {
	return s.Err
}
