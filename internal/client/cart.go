package client

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"

	"github.com/cloudshop/checkout-service/internal/domain/cart"
)

var _ cart.Client = (*CartClient)(nil)

// CartClient talks to the Cart Service REST API.
type CartClient struct {
	http *resty.Client
}

// NewCartClient creates a CartClient for the service at baseURL.
func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{http: newRestyClient(baseURL, timeout)}
}

type lockStatusResponse struct {
	Locked bool `json:"locked"`
}

type cartContentsResponse struct {
	Locked   bool        `json:"locked"`
	Products []cart.Item `json:"products"`
}

// Locked returns the cart's current lock status via GET /cart/{id}/lock.
func (c *CartClient) Locked(ctx context.Context, cartID string, creds cart.Credentials) (bool, error) {
	var out lockStatusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(authParams(creds)).
		SetPathParam("id", cartID).
		SetResult(&out).
		Get("/cart/{id}/lock")
	if err != nil {
		return false, errors.Wrap(err, "get lock status")
	}
	if !resp.IsSuccess() {
		return false, statusError("get lock status", cartID, resp)
	}
	return out.Locked, nil
}

// Lock stamps the checkout timestamp and locks the cart via
// PUT /cart/{id}/checkout.
func (c *CartClient) Lock(ctx context.Context, cartID string, creds cart.Credentials) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(authParams(creds)).
		SetPathParam("id", cartID).
		Put("/cart/{id}/checkout")
	if err != nil {
		return errors.Wrap(err, "lock cart")
	}
	if !resp.IsSuccess() {
		return statusError("lock cart", cartID, resp)
	}
	return nil
}

// Unlock clears the checkout timestamp and lock via DELETE /cart/{id}/checkout.
func (c *CartClient) Unlock(ctx context.Context, cartID string, creds cart.Credentials) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(authParams(creds)).
		SetPathParam("id", cartID).
		Delete("/cart/{id}/checkout")
	if err != nil {
		return errors.Wrap(err, "unlock cart")
	}
	if !resp.IsSuccess() {
		return statusError("unlock cart", cartID, resp)
	}
	return nil
}

// Contents fetches the cart's line items via GET /cart/{id}.
func (c *CartClient) Contents(ctx context.Context, cartID string, creds cart.Credentials) (*cart.Cart, error) {
	var out cartContentsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(authParams(creds)).
		SetPathParam("id", cartID).
		SetResult(&out).
		Get("/cart/{id}")
	if err != nil {
		return nil, errors.Wrap(err, "get cart contents")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, cart.ErrNotFound
	}
	if !resp.IsSuccess() {
		return nil, statusError("get cart contents", cartID, resp)
	}

	return &cart.Cart{
		ID:     cartID,
		Locked: out.Locked,
		Items:  out.Products,
	}, nil
}

// Delete removes the cart entirely via DELETE /cart/{id}.
func (c *CartClient) Delete(ctx context.Context, cartID string, creds cart.Credentials) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(authParams(creds)).
		SetPathParam("id", cartID).
		Delete("/cart/{id}")
	if err != nil {
		return errors.Wrap(err, "delete cart")
	}
	if !resp.IsSuccess() {
		return statusError("delete cart", cartID, resp)
	}
	return nil
}

func statusError(op, cartID string, resp *resty.Response) error {
	return errors.Errorf("%s %s: cart service returned %d", op, cartID, resp.StatusCode())
}
