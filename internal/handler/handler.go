// Package handler exposes the checkout orchestrator over REST:
//
//	POST   /checkout/{cartID}  begin a checkout
//	PUT    /checkout/{cartID}  buy and finish the checkout
//	DELETE /checkout/{cartID}  abort the checkout
//
// The body carries the cart owner's identity: {"sid": ...} for guests or
// {"uid": ..., "password": ...} for registered users, optionally with a
// shipping destination on PUT.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cloudshop/checkout-service/internal/checkout"
	"github.com/cloudshop/checkout-service/internal/domain/cart"
	"github.com/cloudshop/checkout-service/internal/domain/order"
)

// Orchestrator is the slice of checkout.Orchestrator the handler needs.
type Orchestrator interface {
	Begin(ctx context.Context, cartID string, creds cart.Credentials) error
	Buy(ctx context.Context, cartID string, creds cart.Credentials, destination string) (*order.Order, error)
	Abort(ctx context.Context, cartID string, creds cart.Credentials, cause error) error
}

// Handler serves the checkout REST surface.
type Handler struct {
	orch Orchestrator
}

// NewHandler constructs a Handler delegating to the given orchestrator.
func NewHandler(orch Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// Routes mounts the checkout endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/checkout/{cartID}", func(r chi.Router) {
		r.Post("/", h.begin)
		r.Put("/", h.buy)
		r.Delete("/", h.abort)
	})
}

type checkoutRequest struct {
	SID         string `json:"sid"`
	UID         string `json:"uid"`
	Password    string `json:"password"`
	Destination string `json:"destination"`
}

func (req checkoutRequest) credentials() cart.Credentials {
	return cart.Credentials{
		SID:      req.SID,
		UID:      req.UID,
		Password: req.Password,
	}
}

type messageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// orderResponse is the wire shape of a completed order.
type orderResponse struct {
	ID          string  `json:"oid"`
	TotalPrice  float64 `json:"total_price"`
	Shipping    float64 `json:"shipping"`
	Destination string  `json:"destination"`
	UserID      string  `json:"uid"`
	Date        string  `json:"date"`
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.orch.Begin(r.Context(), cartID, req.credentials()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "checkout started"})
}

func (h *Handler) buy(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	ord, err := h.orch.Buy(r.Context(), cartID, req.credentials(), req.Destination)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Message: "checkout completed",
		Data: orderResponse{
			ID:          ord.ID,
			TotalPrice:  ord.Total.InexactFloat64(),
			Shipping:    ord.Shipping.InexactFloat64(),
			Destination: ord.Destination,
			UserID:      ord.UserID,
			Date:        ord.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (h *Handler) abort(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.orch.Abort(r.Context(), cartID, req.credentials(), nil); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "checkout aborted"})
}

// decode parses and validates the request body. On failure it writes the 400
// response itself and returns ok=false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (checkoutRequest, bool) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return req, false
	}
	if err := req.credentials().Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return req, false
	}
	return req, true
}

// writeError maps checkout errors to their HTTP status; anything untyped is
// an internal error and is logged rather than leaked.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *checkout.Error
	if errors.As(err, &cerr) {
		writeJSON(w, cerr.Status, messageResponse{Message: cerr.Message})
		return
	}

	zctx.From(r.Context()).Error("Unhandled checkout error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
