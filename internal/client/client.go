// Package client implements the outbound HTTP contracts with the Cart and
// Inventory services. Non-2xx responses are translated into typed domain
// errors naming the sub-operation that failed; the orchestrator never retries
// a failed call.
package client

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cloudshop/checkout-service/internal/domain/cart"
)

// newRestyClient builds a resty client with the shared defaults for
// collaborator calls. Retries stay disabled: failure handling belongs to the
// checkout abort path, not the transport.
func newRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// authParams maps credentials to the query parameters every Cart Service
// endpoint expects: sid for guests, uid/password for registered users.
func authParams(creds cart.Credentials) map[string]string {
	if creds.Guest() {
		return map[string]string{"sid": creds.SID}
	}
	return map[string]string{
		"uid":      creds.UID,
		"password": creds.Password,
	}
}
