package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound = errors.New("cart not found")
	// ErrBadCredentials is returned when neither or both identity
	// discriminators are supplied.
	ErrBadCredentials = errors.New("exactly one of sid or uid must be provided")
)

// Item is a single line in a cart: a product and the amount placed in it.
type Item struct {
	ProductID string `json:"pid"`
	Quantity  int    `json:"amount_in_cart"`
}

// Cart mirrors the Cart Service's view of a cart. The lock flag is the sole
// concurrency-control primitive for checkout: a cart must be unlocked to begin
// a checkout and locked for every step after that.
type Cart struct {
	ID     string
	Locked bool
	Items  []Item
}

// Credentials identifies the cart owner: a guest session (SID) or a
// registered user (UID and password). The two are mutually exclusive; the
// orchestrator forwards them opaquely to the Cart Service and never
// interprets them.
type Credentials struct {
	SID      string
	UID      string
	Password string
}

// Guest reports whether the credentials identify a guest session.
func (c Credentials) Guest() bool {
	return c.SID != ""
}

// Owner returns the identity recorded on orders created with these
// credentials.
func (c Credentials) Owner() string {
	if c.Guest() {
		return c.SID
	}
	return c.UID
}

// Validate checks that exactly one discriminator is present.
func (c Credentials) Validate() error {
	if (c.SID == "") == (c.UID == "") {
		return ErrBadCredentials
	}
	return nil
}

// Client is the outbound contract with the Cart Service. All operations are
// addressed by cart ID plus the owner's credentials.
type Client interface {
	// Locked reports the cart's current lock status.
	Locked(ctx context.Context, cartID string, creds Credentials) (bool, error)
	// Lock stamps the checkout timestamp and marks the cart locked.
	Lock(ctx context.Context, cartID string, creds Credentials) error
	// Unlock clears the checkout timestamp and lock flag.
	Unlock(ctx context.Context, cartID string, creds Credentials) error
	// Contents returns the cart's line items.
	Contents(ctx context.Context, cartID string, creds Credentials) (*Cart, error)
	// Delete removes the cart entirely. Called once on successful checkout.
	Delete(ctx context.Context, cartID string, creds Credentials) error
}
