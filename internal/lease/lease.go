// Package lease tracks in-flight checkouts so that a crashed or abandoned
// orchestrator call does not leave a cart locked forever. A lease is acquired
// when a checkout begins and released when it finishes or aborts; the Reaper
// aborts any checkout whose lease deadline has passed.
//
// The lease is advisory hardening only. The cart's remote lock flag remains
// the authoritative mutual-exclusion token, and the external checkout
// contract is unchanged.
package lease

import (
	"context"
	"time"

	"github.com/cloudshop/checkout-service/internal/domain/cart"
)

// Lease records one in-flight checkout: the cart, the credentials needed to
// abort it later, and the deadline after which it is considered abandoned.
type Lease struct {
	CartID   string           `json:"cart_id"`
	Creds    cart.Credentials `json:"creds"`
	Deadline time.Time        `json:"deadline"`
}

// Store persists checkout leases. Acquiring an existing cart's lease
// overwrites it; releasing an unknown cart is a no-op.
type Store interface {
	Acquire(ctx context.Context, l Lease) error
	Release(ctx context.Context, cartID string) error
	// Expired returns all leases whose deadline is at or before now.
	Expired(ctx context.Context, now time.Time) ([]Lease, error)
}

// Noop is a Store that records nothing. Used when lease hardening is
// disabled.
type Noop struct{}

func (Noop) Acquire(context.Context, Lease) error  { return nil }
func (Noop) Release(context.Context, string) error { return nil }
func (Noop) Expired(context.Context, time.Time) ([]Lease, error) {
	return nil, nil
}
