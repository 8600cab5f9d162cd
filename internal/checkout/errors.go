package checkout

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/cloudshop/checkout-service/internal/domain/inventory"
	"github.com/cloudshop/checkout-service/internal/domain/payment"
)

// Error is a terminal checkout failure carrying the HTTP status the caller
// should receive. Every failure, regardless of origin, is funnelled through
// Abort and surfaces as one of these.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// badRequest is a precondition or business-rule violation: nothing was
// mutated, or the mutation was already compensated.
func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// paymentRequired is a declined payment.
func paymentRequired(msg string, cause error) *Error {
	return &Error{Status: http.StatusPaymentRequired, Message: msg, cause: cause}
}

// internal is a collaborator failure: unexpected response or unreachable
// service.
func internal(msg string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, cause: cause}
}

// isBusinessRule reports whether err is a domain constraint violation rather
// than a collaborator being unavailable.
func isBusinessRule(err error) bool {
	return errors.Is(err, inventory.ErrInsufficientStock) ||
		errors.Is(err, inventory.ErrProductNotFound) ||
		errors.Is(err, payment.ErrDeclined)
}
