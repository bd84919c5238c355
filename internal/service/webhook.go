package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/money"
	"github.com/shampooches/payments/internal/repository"
	"github.com/shampooches/payments/internal/webhook"
)

// WebhookProcessor applies verified gateway notifications to booking state.
type WebhookProcessor struct {
	db        *db.DB
	events    repository.WebhookEventRepository
	checkouts *CheckoutService
	router    *webhook.Router
	logger    *slog.Logger
}

// NewWebhookProcessor creates a new WebhookProcessor
func NewWebhookProcessor(database *db.DB, checkouts *CheckoutService, logger *slog.Logger) *WebhookProcessor {
	p := &WebhookProcessor{
		db:        database,
		events:    repository.NewWebhookEventRepository(database),
		checkouts: checkouts,
		logger:    logger,
	}
	p.router = webhook.NewRouter(p, logger)
	return p
}

// Process dispatches e once per event id. A repeated delivery reports
// duplicate. An error means the delivery must be retried by the sender.
func (p *WebhookProcessor) Process(ctx context.Context, e *webhook.Event) (bool, error) {
	if e.EventID != "" {
		first, err := p.events.MarkProcessed(ctx, e.EventID, e.Type)
		if err != nil {
			return false, fmt.Errorf("%w: %w", webhook.ErrRedeliver, err)
		}
		if !first {
			p.logger.InfoContext(ctx, "duplicate webhook delivery", "event_id", e.EventID, "event_type", e.Type)
			return true, nil
		}
	}

	if err := p.router.Dispatch(ctx, e); err != nil {
		if e.EventID != "" {
			if forgetErr := p.events.Forget(ctx, e.EventID); forgetErr != nil {
				p.logger.ErrorContext(ctx, "failed to release webhook event for redelivery", "event_id", e.EventID, "error", forgetErr)
			}
		}
		return false, err
	}
	return false, nil
}

// OnPaymentCreated links a deposit payment reported by the gateway to its
// booking when the charge response was never recorded locally.
func (p *WebhookProcessor) OnPaymentCreated(ctx context.Context, paymentID, referenceID string) error {
	bookingID, ok := p.bookingID(ctx, referenceID)
	if !ok {
		return nil
	}

	err := inBookingTx(ctx, p.db, func(r repos) error {
		return performPaymentCreated(ctx, r, p.logger, bookingID, paymentID)
	})
	return p.redeliverable(ctx, err)
}

func performPaymentCreated(ctx context.Context, r repos, logger *slog.Logger, bookingID uuid.UUID, paymentID string) error {
	appt, err := r.appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	if _, err := r.payments.FindByExternalID(ctx, paymentID); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if appt.DepositPaymentID != nil || appt.DepositStatus != models.DepositStatusPending {
		logger.DebugContext(ctx, "payment is not this booking's deposit", "booking_id", bookingID, "payment_id", paymentID)
		return nil
	}

	deposit := &models.Payment{
		ExternalID:  paymentID,
		BookingID:   bookingID,
		Type:        models.PaymentTypeDeposit,
		AmountCents: appt.DepositAmount,
		Currency:    money.Currency,
		Method:      models.PaymentMethodCard,
		Status:      models.PaymentStatusPending,
	}
	if err := r.payments.Create(ctx, deposit); err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) {
			return nil
		}
		return err
	}

	applyDepositStatus(appt, paymentID, deposit.Status)
	recomputeBalance(appt)
	if err := r.appointments.Update(ctx, appt); err != nil {
		return err
	}

	logger.InfoContext(ctx, "deposit payment linked from webhook", "booking_id", bookingID, "payment_id", paymentID)
	return nil
}

// OnPaymentUpdated applies a payment status change to a tracked payment
func (p *WebhookProcessor) OnPaymentUpdated(ctx context.Context, paymentID, status string) error {
	payment, err := repository.NewPaymentRepository(p.db).FindByExternalID(ctx, paymentID)
	if errors.Is(err, models.ErrNotFound) {
		p.logger.DebugContext(ctx, "ignoring update of untracked payment", "payment_id", paymentID)
		return nil
	}
	if err != nil {
		return p.redeliverable(ctx, err)
	}

	err = inBookingTx(ctx, p.db, func(r repos) error {
		_, err := recordStatus(ctx, r, p.logger, payment.BookingID, paymentID, status, "", SourceWebhook)
		return err
	})
	return p.redeliverable(ctx, err)
}

// OnTerminalCheckoutUpdated records a checkout status; it races the poller safely.
func (p *WebhookProcessor) OnTerminalCheckoutUpdated(ctx context.Context, checkoutID, status, referenceID string) error {
	_, err := p.checkouts.RecordCheckoutStatus(ctx, checkoutID, status, referenceID, SourceWebhook)
	return p.redeliverable(ctx, err)
}

// OnRefundCreated records a refund issued outside this service, such as
// from the gateway dashboard.
func (p *WebhookProcessor) OnRefundCreated(ctx context.Context, refundID, paymentID string, amount int64) error {
	original, err := repository.NewPaymentRepository(p.db).FindByExternalID(ctx, paymentID)
	if errors.Is(err, models.ErrNotFound) {
		p.logger.DebugContext(ctx, "ignoring refund of untracked payment", "payment_id", paymentID, "refund_id", refundID)
		return nil
	}
	if err != nil {
		return p.redeliverable(ctx, err)
	}

	err = inBookingTx(ctx, p.db, func(r repos) error {
		return performRefundCreated(ctx, r, p.logger, original, refundID, amount)
	})
	return p.redeliverable(ctx, err)
}

func performRefundCreated(ctx context.Context, r repos, logger *slog.Logger, original *models.Payment, refundID string, amount int64) error {
	appt, err := r.appointments.FindByIDForUpdate(ctx, original.BookingID)
	if err != nil {
		return storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	if _, err := r.payments.FindByExternalID(ctx, refundID); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if amount > original.AmountCents {
		logger.WarnContext(ctx, "refund exceeds original payment",
			"booking_id", appt.ID,
			"payment_id", original.ExternalID,
			"refund_id", refundID,
			"amount", amount,
			"original_amount", original.AmountCents,
		)
	}

	refund := &models.Payment{
		ExternalID:  refundID,
		BookingID:   appt.ID,
		Type:        models.PaymentTypeRefund,
		AmountCents: amount,
		Currency:    original.Currency,
		Method:      original.Method,
		Status:      models.PaymentStatusPending,
	}
	if err := r.payments.Create(ctx, refund); err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) {
			return nil
		}
		return err
	}

	if err := r.payments.UpdateStatus(ctx, original.ID, models.PaymentStatusRefunded); err != nil {
		return err
	}

	if original.Type == models.PaymentTypeDeposit && appt.DepositStatus != models.DepositStatusRefunded {
		appt.DepositStatus = models.DepositStatusRefunded
		recomputeBalance(appt)
		if err := r.appointments.Update(ctx, appt); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "refund recorded from webhook",
		"booking_id", appt.ID,
		"payment_id", original.ExternalID,
		"refund_id", refundID,
	)
	return nil
}

func (p *WebhookProcessor) bookingID(ctx context.Context, referenceID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(referenceID)
	if err != nil {
		p.logger.DebugContext(ctx, "reference id is not a booking id", "reference_id", referenceID)
		return uuid.Nil, false
	}
	return id, true
}

// redeliverable decides whether a handler failure should make the sender
// retry. Business rejections and unknown bookings are final; storage and
// concurrency failures are transient.
func (p *WebhookProcessor) redeliverable(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Code {
		case ErrCodeInternalError, ErrCodeConflict, ErrCodeGatewayUnavailable:
		default:
			p.logger.InfoContext(ctx, "webhook event not applied", "code", svcErr.Code, "error", err)
			return nil
		}
	}
	return fmt.Errorf("%w: %w", webhook.ErrRedeliver, err)
}
