package square

import (
	"errors"
	"fmt"
)

// Errors returned before or instead of a gateway round trip
var (
	// ErrInvalidAmount indicates the amount failed money policy; no request was sent.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrInvalidRequest indicates a required request field is missing; no request was sent.
	ErrInvalidRequest = errors.New("invalid gateway request")

	// ErrNotFound indicates the gateway does not know the id.
	ErrNotFound = errors.New("not found")
)

// RejectedError is a business decline from the gateway (card declined,
// insufficient funds, bad device). It must not be retried automatically.
type RejectedError struct {
	Category   string
	Code       string
	Detail     string
	StatusCode int
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway rejected request (%s): %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("gateway rejected request (%s)", e.Code)
}

// TransportError covers network failures, timeouts, throttling and 5xx
// responses. The request is safe to resend with the same idempotency key.
type TransportError struct {
	Err        error
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway transport error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway transport error: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err may be retried with the same idempotency key.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
