package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shampooches/payments/internal/money"
)

// ErrRedeliver is returned by a handler that needs the sender to deliver the
// event again. It is the only handler error Dispatch returns.
var ErrRedeliver = errors.New("event must be redelivered")

// Handlers receives the fields extracted from each event kind. Implementations
// never see the raw object.
type Handlers interface {
	OnPaymentCreated(ctx context.Context, paymentID, referenceID string) error
	OnPaymentUpdated(ctx context.Context, paymentID, status string) error
	OnTerminalCheckoutUpdated(ctx context.Context, checkoutID, status, referenceID string) error
	OnRefundCreated(ctx context.Context, refundID, paymentID string, amount int64) error
}

// Router dispatches parsed events to Handlers.
type Router struct {
	handlers Handlers
	logger   *slog.Logger
}

// NewRouter creates a router
func NewRouter(handlers Handlers, logger *slog.Logger) *Router {
	return &Router{handlers: handlers, logger: logger}
}

// Dispatch calls the handler for the event type. Events with missing fields
// and unknown types are logged and dropped. Handler errors and panics are
// logged and swallowed, except ErrRedeliver.
func (r *Router) Dispatch(ctx context.Context, e *Event) (err error) {
	if e == nil {
		return nil
	}

	logger := r.logger.With("event_id", e.EventID, "event_type", e.Type)

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "webhook handler panicked", "panic", fmt.Sprint(rec))
			err = nil
		}
	}()

	obj := e.entity()

	var handlerErr error
	switch e.Type {
	case TypePaymentCreated:
		paymentID, referenceID := stringField(obj, "id"), stringField(obj, "reference_id")
		if paymentID == "" || referenceID == "" {
			logger.WarnContext(ctx, "dropping event: missing payment id or reference id")
			return nil
		}
		handlerErr = r.handlers.OnPaymentCreated(ctx, paymentID, referenceID)

	case TypePaymentUpdated:
		paymentID, status := stringField(obj, "id"), stringField(obj, "status")
		if paymentID == "" || status == "" {
			logger.WarnContext(ctx, "dropping event: missing payment id or status")
			return nil
		}
		handlerErr = r.handlers.OnPaymentUpdated(ctx, paymentID, status)

	case TypeTerminalCheckoutUpdated:
		checkoutID, status := stringField(obj, "id"), stringField(obj, "status")
		if checkoutID == "" || status == "" {
			logger.WarnContext(ctx, "dropping event: missing checkout id or status")
			return nil
		}
		handlerErr = r.handlers.OnTerminalCheckoutUpdated(ctx, checkoutID, status, stringField(obj, "reference_id"))

	case TypeRefundCreated:
		refundID, paymentID := stringField(obj, "id"), stringField(obj, "payment_id")
		amount, ok := refundAmount(obj)
		if refundID == "" || paymentID == "" || !ok {
			logger.WarnContext(ctx, "dropping event: missing refund id, payment id or amount")
			return nil
		}
		handlerErr = r.handlers.OnRefundCreated(ctx, refundID, paymentID, amount)

	default:
		logger.DebugContext(ctx, "ignoring unhandled webhook event type")
		return nil
	}

	if handlerErr == nil {
		return nil
	}
	if errors.Is(handlerErr, ErrRedeliver) {
		logger.WarnContext(ctx, "webhook handler requested redelivery", "error", handlerErr)
		return handlerErr
	}
	logger.ErrorContext(ctx, "webhook handler failed", "error", handlerErr)
	return nil
}

func refundAmount(obj map[string]any) (int64, bool) {
	am, ok := obj["amount_money"].(map[string]any)
	if !ok {
		return 0, false
	}
	amount, ok := am["amount"].(float64)
	if !ok || !money.IsValidPaymentAmount(amount) {
		return 0, false
	}
	return int64(amount), true
}
