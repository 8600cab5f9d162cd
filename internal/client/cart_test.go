package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudshop/checkout-service/internal/domain/cart"
)

// recordedRequest captures the parts of an inbound request the client is
// responsible for shaping.
type recordedRequest struct {
	method string
	path   string
	query  map[string]string
}

func newCartServer(t *testing.T, status int, body any) (*httptest.Server, *recordedRequest) {
	t.Helper()

	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = map[string]string{}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			require.NoError(t, json.NewEncoder(w).Encode(body))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestCartLocked(t *testing.T) {
	srv, rec := newCartServer(t, http.StatusOK, map[string]any{"locked": true})
	c := NewCartClient(srv.URL, time.Second)

	locked, err := c.Locked(context.Background(), "c1", cart.Credentials{SID: "sess-1"})
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/cart/c1/lock", rec.path)
	assert.Equal(t, map[string]string{"sid": "sess-1"}, rec.query)
}

func TestCartLock_UserCredentials(t *testing.T) {
	srv, rec := newCartServer(t, http.StatusOK, nil)
	c := NewCartClient(srv.URL, time.Second)

	err := c.Lock(context.Background(), "c1", cart.Credentials{UID: "u1", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/cart/c1/checkout", rec.path)
	assert.Equal(t, map[string]string{"uid": "u1", "password": "pw"}, rec.query)
}

func TestCartUnlock(t *testing.T) {
	srv, rec := newCartServer(t, http.StatusOK, nil)
	c := NewCartClient(srv.URL, time.Second)

	err := c.Unlock(context.Background(), "c1", cart.Credentials{SID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/cart/c1/checkout", rec.path)
}

func TestCartContents(t *testing.T) {
	srv, rec := newCartServer(t, http.StatusOK, map[string]any{
		"locked": true,
		"products": []map[string]any{
			{"pid": "p1", "amount_in_cart": 7},
			{"pid": "p2", "amount_in_cart": 50},
		},
	})
	c := NewCartClient(srv.URL, time.Second)

	got, err := c.Contents(context.Background(), "c1", cart.Credentials{SID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/cart/c1", rec.path)
	assert.Equal(t, &cart.Cart{
		ID:     "c1",
		Locked: true,
		Items: []cart.Item{
			{ProductID: "p1", Quantity: 7},
			{ProductID: "p2", Quantity: 50},
		},
	}, got)
}

func TestCartContents_NotFound(t *testing.T) {
	srv, _ := newCartServer(t, http.StatusNotFound, nil)
	c := NewCartClient(srv.URL, time.Second)

	_, err := c.Contents(context.Background(), "missing", cart.Credentials{SID: "sess-1"})
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCartDelete(t *testing.T) {
	srv, rec := newCartServer(t, http.StatusOK, nil)
	c := NewCartClient(srv.URL, time.Second)

	err := c.Delete(context.Background(), "c1", cart.Credentials{SID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/cart/c1", rec.path)
}

func TestCartServerError(t *testing.T) {
	srv, _ := newCartServer(t, http.StatusInternalServerError, nil)
	c := NewCartClient(srv.URL, time.Second)

	err := c.Lock(context.Background(), "c1", cart.Credentials{SID: "sess-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 500")
}
