package service

import (
	"errors"
	"fmt"

	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/square"
	"github.com/shampooches/payments/internal/terminal"
)

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidAmount         = "invalid_amount"
	ErrCodeInvalidRequest        = "invalid_request"
	ErrCodeAmountMismatch        = "amount_mismatch"
	ErrCodeBookingNotFound       = "booking_not_found"
	ErrCodeCheckoutNotFound      = "checkout_not_found"
	ErrCodePaymentNotFound       = "payment_not_found"
	ErrCodeAppointmentClosed     = "appointment_closed"
	ErrCodeDepositAlreadyPaid    = "deposit_already_collected"
	ErrCodeDepositNotCollected   = "deposit_not_collected"
	ErrCodeAlreadyRefunded       = "already_refunded"
	ErrCodeRescheduleLimit       = "reschedule_limit_reached"
	ErrCodeFinalPaymentCompleted = "final_payment_completed"
	ErrCodeCheckoutInProgress    = "checkout_in_progress"
	ErrCodeCheckoutTerminated    = "checkout_terminated"
	ErrCodePollTimeout           = "poll_timeout"
	ErrCodePollCanceled          = "poll_canceled"
	ErrCodeGatewayRejected       = "gateway_rejected"
	ErrCodeGatewayUnavailable    = "gateway_unavailable"
	ErrCodeConflict              = "conflict"
	ErrCodeInternalError         = "internal_error"
)

// gatewayError classifies a gateway client error. notFoundCode is used when
// the gateway does not know the id.
func gatewayError(err error, notFoundCode string) error {
	var rej *square.RejectedError
	var te *square.TransportError

	switch {
	case errors.As(err, &rej):
		msg := rej.Detail
		if msg == "" {
			msg = rej.Code
		}
		return &ServiceError{Code: ErrCodeGatewayRejected, Message: msg, Err: err}
	case errors.As(err, &te):
		return &ServiceError{Code: ErrCodeGatewayUnavailable, Message: "payment gateway unavailable", Err: err}
	case errors.Is(err, square.ErrNotFound):
		return &ServiceError{Code: notFoundCode, Message: "not found at payment gateway", Err: err}
	case errors.Is(err, square.ErrInvalidAmount):
		return &ServiceError{Code: ErrCodeInvalidAmount, Message: "invalid payment amount", Err: err}
	case errors.Is(err, square.ErrInvalidRequest):
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: "invalid payment request", Err: err}
	default:
		return &ServiceError{Code: ErrCodeInternalError, Message: "payment gateway call failed", Err: err}
	}
}

// pollError classifies a poller outcome that is not a completed checkout.
func pollError(err error) error {
	var terminated *terminal.CheckoutTerminatedError

	switch {
	case errors.As(err, &terminated):
		return &ServiceError{
			Code:    ErrCodeCheckoutTerminated,
			Message: "checkout ended with status " + terminated.Status,
			Err:     err,
		}
	case errors.Is(err, terminal.ErrPollTimeout):
		return &ServiceError{
			Code:    ErrCodePollTimeout,
			Message: "checkout status unknown after polling; reconcile before taking further action",
			Err:     err,
		}
	case errors.Is(err, terminal.ErrPollCanceled):
		return &ServiceError{Code: ErrCodePollCanceled, Message: "polling canceled", Err: err}
	default:
		return gatewayError(err, ErrCodeCheckoutNotFound)
	}
}

// storeError maps repository failures inside a booking transaction.
func storeError(err error, notFoundCode, what string) error {
	var svcErr *ServiceError
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, models.ErrNotFound):
		return &ServiceError{Code: notFoundCode, Message: what + " not found", Err: err}
	case errors.Is(err, models.ErrVersionConflict):
		return &ServiceError{Code: ErrCodeConflict, Message: what + " was modified concurrently", Err: err}
	default:
		return &ServiceError{Code: ErrCodeInternalError, Message: fmt.Sprintf("failed to save %s", what), Err: err}
	}
}
