package lease

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cloudshop/checkout-service/internal/domain/cart"
)

// Aborter aborts an in-flight checkout. Satisfied by checkout.Orchestrator.
type Aborter interface {
	Abort(ctx context.Context, cartID string, creds cart.Credentials, cause error) error
}

// Reaper periodically sweeps the Store and aborts checkouts whose lease has
// expired, unlocking carts abandoned mid-checkout.
type Reaper struct {
	store   Store
	aborter Aborter
}

// NewReaper creates a Reaper sweeping the given store.
func NewReaper(store Store, aborter Aborter) *Reaper {
	return &Reaper{store: store, aborter: aborter}
}

// Run sweeps at the given interval until ctx is cancelled. It always returns
// nil so it can run in an errgroup without tearing the service down.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.sweep(ctx, now)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context, now time.Time) {
	lg := zctx.From(ctx)

	expired, err := r.store.Expired(ctx, now)
	if err != nil {
		lg.Warn("Lease sweep failed", zap.Error(err))
		return
	}

	for _, l := range expired {
		if err := r.aborter.Abort(ctx, l.CartID, l.Creds, nil); err != nil {
			// A 400 here just means the cart is already unlocked; the lease
			// is stale either way and gets dropped below.
			lg.Info("Expired checkout abort",
				zap.String("cart_id", l.CartID),
				zap.Error(err),
			)
		} else {
			lg.Info("Aborted expired checkout", zap.String("cart_id", l.CartID))
		}

		if err := r.store.Release(ctx, l.CartID); err != nil {
			lg.Warn("Release expired lease", zap.String("cart_id", l.CartID), zap.Error(err))
		}
	}
}
