package client

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/cloudshop/checkout-service/internal/domain/inventory"
)

var _ inventory.Client = (*InventoryClient)(nil)

// InventoryClient talks to the Inventory Service REST API.
type InventoryClient struct {
	http *resty.Client
}

// NewInventoryClient creates an InventoryClient for the service at baseURL.
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{http: newRestyClient(baseURL, timeout)}
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

type stockAdjustRequest struct {
	Amount int `json:"amount"`
}

// UnitPrice fetches a product's unit price via GET /inventory/{pid}/price.
func (c *InventoryClient) UnitPrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	var out priceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("pid", productID).
		SetResult(&out).
		Get("/inventory/{pid}/price")
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "get price of %s", productID)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return decimal.Zero, inventory.ErrProductNotFound
	}
	if !resp.IsSuccess() {
		return decimal.Zero, errors.Errorf("get price of %s: inventory service returned %d", productID, resp.StatusCode())
	}
	return out.Price, nil
}

// DecrementStock subtracts amount from a product's stock via
// PUT /inventory/{pid}/stock/decrement. The service rejects any decrement
// that would drive stock negative; that rejection surfaces as
// inventory.ErrInsufficientStock.
func (c *InventoryClient) DecrementStock(ctx context.Context, productID string, amount int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("pid", productID).
		SetBody(stockAdjustRequest{Amount: amount}).
		Put("/inventory/{pid}/stock/decrement")
	if err != nil {
		return errors.Wrapf(err, "decrement stock of %s", productID)
	}

	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusNotFound:
		return inventory.ErrProductNotFound
	case resp.StatusCode() >= 400 && resp.StatusCode() < 500:
		// The only business rule on this endpoint is the non-negative
		// stock constraint.
		return errors.Wrapf(inventory.ErrInsufficientStock, "product %s", productID)
	default:
		return errors.Errorf("decrement stock of %s: inventory service returned %d", productID, resp.StatusCode())
	}
}

// IncrementStock adds amount back to a product's stock via
// PUT /inventory/{pid}/stock/increment.
func (c *InventoryClient) IncrementStock(ctx context.Context, productID string, amount int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("pid", productID).
		SetBody(stockAdjustRequest{Amount: amount}).
		Put("/inventory/{pid}/stock/increment")
	if err != nil {
		return errors.Wrapf(err, "increment stock of %s", productID)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return inventory.ErrProductNotFound
	}
	if !resp.IsSuccess() {
		return errors.Errorf("increment stock of %s: inventory service returned %d", productID, resp.StatusCode())
	}
	return nil
}
