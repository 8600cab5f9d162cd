// Package checkout drives a single cart through a checkout without leaving
// partial side effects: lock the cart, verify and decrement stock, compute
// the price, charge payment, record the order. Any failure routes through
// abort, which unlocks the cart and reports a terminal status to the caller.
//
// The orchestrator is stateless. The Cart Service's lock flag is the only
// mutual-exclusion token; stock counts and lock flags are owned by their
// services and are never cached here.
package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudshop/checkout-service/internal/domain/cart"
	"github.com/cloudshop/checkout-service/internal/domain/inventory"
	"github.com/cloudshop/checkout-service/internal/domain/order"
	"github.com/cloudshop/checkout-service/internal/domain/payment"
	"github.com/cloudshop/checkout-service/internal/domain/shipping"
	"github.com/cloudshop/checkout-service/internal/events"
	"github.com/cloudshop/checkout-service/internal/lease"
)

// Config holds orchestrator behaviour toggles.
type Config struct {
	// StrictCompensation controls what happens when a stock decrement (or a
	// later lookup before payment) fails partway through a cart: true
	// re-increments every already-decremented product before aborting; false
	// preserves the historical behaviour where only the payment-declined
	// path compensates fully.
	StrictCompensation bool
	// LeaseTTL bounds how long a cart may sit in a begun-but-unfinished
	// checkout before the reaper aborts it. Zero disables leasing.
	LeaseTTL time.Duration
}

// Orchestrator coordinates a checkout across the Cart Service, the Inventory
// Service, the payment processor and the order store. All dependencies are
// injected at construction, so tests run against in-memory fakes.
type Orchestrator struct {
	carts    cart.Client
	stock    inventory.Client
	orders   order.Repository
	payments payment.Processor
	shipping shipping.Calculator
	events   events.Publisher
	leases   lease.Store
	cfg      Config
	now      func() time.Time
}

// New creates an Orchestrator with the given collaborators.
func New(
	carts cart.Client,
	stock inventory.Client,
	orders order.Repository,
	payments payment.Processor,
	shippingCalc shipping.Calculator,
	publisher events.Publisher,
	leases lease.Store,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		carts:    carts,
		stock:    stock,
		orders:   orders,
		payments: payments,
		shipping: shippingCalc,
		events:   publisher,
		leases:   leases,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Begin transitions a cart from Unlocked to LockedPending: it stamps the
// checkout timestamp and locks the cart. A cart already in a checkout is
// rejected with 400 and nothing is changed.
func (o *Orchestrator) Begin(ctx context.Context, cartID string, creds cart.Credentials) error {
	locked, err := o.carts.Locked(ctx, cartID, creds)
	if err != nil {
		return internal("cannot get locked status", err)
	}
	if stateFromLock(locked) != Unlocked {
		return badRequest("checkout already in progress")
	}

	if err := o.carts.Lock(ctx, cartID, creds); err != nil {
		return internal("could not lock cart", err)
	}

	if o.cfg.LeaseTTL > 0 {
		l := lease.Lease{
			CartID:   cartID,
			Creds:    creds,
			Deadline: o.now().Add(o.cfg.LeaseTTL),
		}
		// Advisory only: a lost lease degrades to the original
		// no-timeout behaviour, it must not fail the checkout.
		if err := o.leases.Acquire(ctx, l); err != nil {
			zctx.From(ctx).Warn("Acquire checkout lease", zap.String("cart_id", cartID), zap.Error(err))
		}
	}

	zctx.From(ctx).Info("Checkout started",
		zap.String("cart_id", cartID),
		zap.Bool("guest", creds.Guest()),
	)
	return nil
}

// Buy runs the full purchase for a cart in LockedPending state: decrement
// stock per line item in cart order, price the cart, charge payment, then
// finish. Every failure after the lock re-check routes through abort; stock
// restoration follows Config.StrictCompensation except for declined
// payments, which always restore everything.
func (o *Orchestrator) Buy(ctx context.Context, cartID string, creds cart.Credentials, destination string) (*order.Order, error) {
	lg := zctx.From(ctx)

	locked, err := o.carts.Locked(ctx, cartID, creds)
	if err != nil {
		return nil, internal("cannot get locked status", err)
	}
	if stateFromLock(locked) != LockedPending {
		return nil, badRequest("checkout wasn't started")
	}

	c, err := o.carts.Contents(ctx, cartID, creds)
	if err != nil {
		return nil, o.abort(ctx, cartID, creds, internal("could not get cart contents", err))
	}
	if len(c.Items) == 0 {
		return nil, o.abort(ctx, cartID, creds, badRequest("cart is empty"))
	}

	comp := &compensator{}

	// Decrement stock sequentially in cart-iteration order. The Inventory
	// Service enforces the non-negative constraint per product.
	for _, item := range c.Items {
		if err := o.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			cause := decrementError(item, err)
			if o.cfg.StrictCompensation {
				comp.rollback(ctx)
			}
			return nil, o.abort(ctx, cartID, creds, cause)
		}
		comp.add("restock "+item.ProductID, func(ctx context.Context) error {
			return o.stock.IncrementStock(ctx, item.ProductID, item.Quantity)
		})
	}

	subtotal := decimal.Zero
	for _, item := range c.Items {
		price, err := o.stock.UnitPrice(ctx, item.ProductID)
		if err != nil {
			if o.cfg.StrictCompensation {
				comp.rollback(ctx)
			}
			cause := internal(fmt.Sprintf("could not get price of product %s", item.ProductID), err)
			return nil, o.abort(ctx, cartID, creds, cause)
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipCost, err := o.shipping.Cost(ctx, shipping.Quote{
		Destination: destination,
		Subtotal:    subtotal,
	})
	if err != nil {
		if o.cfg.StrictCompensation {
			comp.rollback(ctx)
		}
		return nil, o.abort(ctx, cartID, creds, internal("could not compute shipping cost", err))
	}

	total := subtotal.Add(shipCost).Round(2)

	if err := o.payments.Charge(ctx, creds.Owner(), total); err != nil {
		// Payment decline always restores every decremented product,
		// regardless of the compensation mode.
		comp.rollback(ctx)
		return nil, o.abort(ctx, cartID, creds, paymentRequired("payment unsuccessful", err))
	}

	ord, ferr := o.finish(ctx, cartID, creds, total, shipCost, destination)
	if ferr != nil {
		// Payment has been captured; restoring stock here would hand the
		// items back while keeping the money. Leave stock as-is and flag
		// the stranded charge for reconciliation.
		lg.Error("Payment captured but checkout did not finish",
			zap.String("cart_id", cartID),
			zap.String("total", total.String()),
			zap.Error(ferr),
		)
		return nil, o.abort(ctx, cartID, creds, ferr)
	}

	lg.Info("Checkout completed",
		zap.String("cart_id", cartID),
		zap.String("order_id", ord.ID),
		zap.String("total", ord.Total.String()),
	)
	return ord, nil
}

// Abort explicitly ends a checkout: it unlocks the cart and clears the
// checkout timestamp. Aborting a cart with no checkout in progress is a
// 400 no-op. The supplied cause, when non-nil, is returned so the caller
// sees the reason the checkout died.
func (o *Orchestrator) Abort(ctx context.Context, cartID string, creds cart.Credentials, cause error) error {
	locked, err := o.carts.Locked(ctx, cartID, creds)
	if err != nil {
		return internal("cannot get locked status", err)
	}
	if stateFromLock(locked) != LockedPending {
		return badRequest("no checkout in progress")
	}

	if err := o.carts.Unlock(ctx, cartID, creds); err != nil {
		return internal("could not abort checkout", err)
	}
	o.releaseLease(ctx, cartID)

	zctx.From(ctx).Info("Checkout aborted", zap.String("cart_id", cartID))
	return cause
}

// abort is the internal failure funnel: it returns the cart to an unlocked
// state (tolerating carts that are already unlocked, e.g. when finish failed
// after clearing the lock) and propagates cause as the terminal error.
func (o *Orchestrator) abort(ctx context.Context, cartID string, creds cart.Credentials, cause *Error) error {
	lg := zctx.From(ctx)

	locked, err := o.carts.Locked(ctx, cartID, creds)
	if err != nil {
		lg.Error("Abort: cannot get locked status", zap.String("cart_id", cartID), zap.Error(err))
		return cause
	}
	if locked {
		if err := o.carts.Unlock(ctx, cartID, creds); err != nil {
			lg.Error("Abort: could not unlock cart", zap.String("cart_id", cartID), zap.Error(err))
			return internal("could not abort checkout", err)
		}
	}
	o.releaseLease(ctx, cartID)

	lg.Info("Checkout aborted",
		zap.String("cart_id", cartID),
		zap.String("reason", cause.Message),
		zap.Int("status", cause.Status),
	)
	return cause
}

// finish completes a LockedPending checkout: re-verify the lock, clear the
// checkout timestamp, delete the cart, create the order. Step order follows
// the service contract; the order row is written last.
func (o *Orchestrator) finish(ctx context.Context, cartID string, creds cart.Credentials, total, shipCost decimal.Decimal, destination string) (*order.Order, *Error) {
	locked, err := o.carts.Locked(ctx, cartID, creds)
	if err != nil {
		return nil, internal("cannot get locked status", err)
	}
	if stateFromLock(locked) != LockedPending {
		return nil, badRequest("no checkout in progress")
	}

	if err := o.carts.Unlock(ctx, cartID, creds); err != nil {
		return nil, internal("could not clear checkout", err)
	}
	if err := o.carts.Delete(ctx, cartID, creds); err != nil {
		return nil, internal("could not delete cart", err)
	}

	ord := &order.Order{
		Total:       total,
		Shipping:    shipCost,
		Destination: destination,
		UserID:      creds.Owner(),
	}
	if err := o.orders.Create(ctx, ord); err != nil {
		return nil, internal("could not create order", err)
	}

	o.releaseLease(ctx, cartID)
	o.publishOrderCreated(ctx, ord)

	return ord, nil
}

func (o *Orchestrator) releaseLease(ctx context.Context, cartID string) {
	if o.cfg.LeaseTTL <= 0 {
		return
	}
	if err := o.leases.Release(ctx, cartID); err != nil {
		zctx.From(ctx).Warn("Release checkout lease", zap.String("cart_id", cartID), zap.Error(err))
	}
}

func (o *Orchestrator) publishOrderCreated(ctx context.Context, ord *order.Order) {
	err := o.events.PublishOrderCreated(ctx, events.OrderCreated{
		OrderID:     ord.ID,
		UserID:      ord.UserID,
		Destination: ord.Destination,
		Total:       ord.Total,
		Shipping:    ord.Shipping,
		CreatedAt:   ord.CreatedAt,
	})
	if err != nil {
		zctx.From(ctx).Warn("Publish order.created", zap.String("order_id", ord.ID), zap.Error(err))
	}
}

// decrementError maps a failed stock decrement to the caller-facing error:
// a constraint violation is a 400 business-rule failure, anything else is a
// 500 collaborator failure.
func decrementError(item cart.Item, err error) *Error {
	msg := fmt.Sprintf("could not subtract %d of product %s from inventory", item.Quantity, item.ProductID)
	if isBusinessRule(err) {
		return &Error{Status: http.StatusBadRequest, Message: msg, cause: err}
	}
	return &Error{Status: http.StatusInternalServerError, Message: msg, cause: err}
}
