package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/idempotency"
	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/money"
	"github.com/shampooches/payments/internal/repository"
	"github.com/shampooches/payments/internal/square"
)

// PaymentInfo is everything known about a booking's payments.
type PaymentInfo struct {
	Appointment *models.Appointment
	Payments    []*models.Payment
	Anomalies   []*models.PaymentAnomaly
}

// PaymentService handles deposits, refunds and booking changes that affect money.
type PaymentService struct {
	db      *db.DB
	gateway Gateway
	logger  *slog.Logger
	now     func() time.Time
	retry   retryPolicy
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(database *db.DB, gateway Gateway, logger *slog.Logger, transportRetries int) *PaymentService {
	return &PaymentService{
		db:      database,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
		retry:   retryPolicy{logger: logger, retries: transportRetries, backoff: 250 * time.Millisecond},
	}
}

// CreateAppointment opens the payment record for a new booking
func (s *PaymentService) CreateAppointment(ctx context.Context, appointmentDate time.Time, totalServiceCost int64) (*models.Appointment, error) {
	appt := &models.Appointment{
		Status:          models.AppointmentStatusPending,
		AppointmentDate: appointmentDate,
		DepositAmount:   money.DepositAmount(),
		DepositStatus:   models.DepositStatusPending,
	}
	if err := setServiceCost(appt, totalServiceCost); err != nil {
		return nil, err
	}

	if err := repository.NewAppointmentRepository(s.db).Create(ctx, appt); err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	s.logger.InfoContext(ctx, "appointment opened", "booking_id", appt.ID, "total_service_cost", appt.TotalServiceCost)
	return appt, nil
}

// CollectDeposit charges the booking deposit from a card token. The booking
// row stays locked for the duration of the gateway call.
func (s *PaymentService) CollectDeposit(ctx context.Context, bookingID uuid.UUID, sourceID string) (*models.Payment, error) {
	var payment *models.Payment
	err := inBookingTx(ctx, s.db, func(r repos) error {
		var err error
		payment, err = s.performCollectDeposit(ctx, r, bookingID, sourceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) performCollectDeposit(ctx context.Context, r repos, bookingID uuid.UUID, sourceID string) (*models.Payment, error) {
	appt, err := r.appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	if appt.Status == models.AppointmentStatusCancelled {
		return nil, &ServiceError{Code: ErrCodeAppointmentClosed, Message: "appointment is cancelled"}
	}
	if appt.DepositPaymentID != nil || appt.DepositStatus != models.DepositStatusPending {
		return nil, &ServiceError{Code: ErrCodeDepositAlreadyPaid, Message: "deposit already collected for this booking"}
	}

	attempt := idempotency.NewAttempt(appt.ReferenceID(), idempotency.PurposeDeposit, s.now())
	req := square.DepositRequest{
		SourceID:       sourceID,
		Amount:         money.DepositAmount(),
		Currency:       money.Currency,
		ReferenceID:    appt.ReferenceID(),
		Note:           money.DepositNote,
		IdempotencyKey: attempt.Key(),
	}

	charged, err := callGateway(ctx, s.retry, "create_deposit", func(ctx context.Context) (*square.Payment, error) {
		return s.gateway.CreateDeposit(ctx, req)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "deposit charge failed", "booking_id", bookingID, "error", err)
		return nil, gatewayError(err, ErrCodePaymentNotFound)
	}

	payment := &models.Payment{
		ExternalID:     charged.ID,
		BookingID:      appt.ID,
		Type:           models.PaymentTypeDeposit,
		AmountCents:    req.Amount,
		Currency:       req.Currency,
		Method:         models.PaymentMethodCard,
		Status:         PaymentStatusFromGateway(charged.Status),
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := r.payments.Create(ctx, payment); err != nil && !errors.Is(err, models.ErrDuplicateTransaction) {
		s.logger.ErrorContext(ctx, "deposit charged but not recorded",
			"booking_id", bookingID,
			"payment_id", charged.ID,
			"error", err,
		)
		return nil, storeError(err, ErrCodeInternalError, "deposit payment")
	}

	if payment.Status != models.PaymentStatusFailed {
		applyDepositStatus(appt, charged.ID, payment.Status)
	}
	recomputeBalance(appt)
	if err := r.appointments.Update(ctx, appt); err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	s.logger.InfoContext(ctx, "deposit collected",
		"booking_id", bookingID,
		"payment_id", charged.ID,
		"status", payment.Status,
	)
	return payment, nil
}

// RequestDepositRefund refunds the deposit at staff discretion. The reason
// is required and stored with the refund.
func (s *PaymentService) RequestDepositRefund(ctx context.Context, bookingID uuid.UUID, reason, staffID string) (*models.Payment, error) {
	var refund *models.Payment
	err := inBookingTx(ctx, s.db, func(r repos) error {
		var err error
		refund, err = s.performDepositRefund(ctx, r, bookingID, reason, staffID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *PaymentService) performDepositRefund(ctx context.Context, r repos, bookingID uuid.UUID, reason, staffID string) (*models.Payment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: "a refund reason is required"}
	}

	appt, err := r.appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	switch {
	case appt.DepositStatus == models.DepositStatusRefunded:
		return nil, &ServiceError{Code: ErrCodeAlreadyRefunded, Message: "deposit has already been refunded"}
	case appt.DepositPaymentID == nil || appt.DepositStatus == models.DepositStatusPending:
		return nil, &ServiceError{Code: ErrCodeDepositNotCollected, Message: "deposit has not been collected"}
	}

	deposit, err := r.payments.FindByExternalID(ctx, *appt.DepositPaymentID)
	if err != nil {
		return nil, storeError(err, ErrCodePaymentNotFound, "deposit payment")
	}
	if deposit.Status != models.PaymentStatusCompleted {
		return nil, &ServiceError{
			Code:    ErrCodeDepositNotCollected,
			Message: fmt.Sprintf("deposit payment is %s", deposit.Status),
		}
	}

	attempt := idempotency.NewAttempt(deposit.ExternalID, idempotency.PurposeRefund, s.now())
	req := square.RefundRequest{
		PaymentID:      deposit.ExternalID,
		Amount:         deposit.AmountCents,
		Currency:       deposit.Currency,
		Reason:         reason,
		IdempotencyKey: attempt.Key(),
	}

	refunded, err := callGateway(ctx, s.retry, "create_refund", func(ctx context.Context) (*square.Refund, error) {
		return s.gateway.CreateRefund(ctx, req)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "deposit refund failed", "booking_id", bookingID, "error", err)
		return nil, gatewayError(err, ErrCodePaymentNotFound)
	}

	refund := &models.Payment{
		ExternalID:     refunded.ID,
		BookingID:      appt.ID,
		Type:           models.PaymentTypeRefund,
		AmountCents:    req.Amount,
		Currency:       req.Currency,
		Method:         deposit.Method,
		Status:         refundStatus(refunded.Status),
		IdempotencyKey: req.IdempotencyKey,
		Reason:         &reason,
	}
	if staffID != "" {
		refund.ProcessedBy = &staffID
	}

	if err := r.payments.Create(ctx, refund); err != nil && !errors.Is(err, models.ErrDuplicateTransaction) {
		s.logger.ErrorContext(ctx, "refund issued but not recorded",
			"booking_id", bookingID,
			"refund_id", refunded.ID,
			"error", err,
		)
		return nil, storeError(err, ErrCodeInternalError, "refund")
	}

	if err := r.payments.UpdateStatus(ctx, deposit.ID, models.PaymentStatusRefunded); err != nil {
		return nil, storeError(err, ErrCodePaymentNotFound, "deposit payment")
	}

	appt.DepositStatus = models.DepositStatusRefunded
	recomputeBalance(appt)
	if err := r.appointments.Update(ctx, appt); err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	s.logger.InfoContext(ctx, "deposit refunded",
		"booking_id", bookingID,
		"refund_id", refunded.ID,
		"staff_id", staffID,
		"reason", reason,
	)
	return refund, nil
}

// refundStatus maps a gateway refund status. Refunds settle asynchronously,
// so anything short of COMPLETED or a failure is pending.
func refundStatus(status string) models.PaymentStatus {
	switch status {
	case "COMPLETED":
		return models.PaymentStatusCompleted
	case "REJECTED", "FAILED":
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

// RescheduleAppointment moves the booking to newDate
func (s *PaymentService) RescheduleAppointment(ctx context.Context, bookingID uuid.UUID, newDate time.Time) (*models.Appointment, error) {
	return s.mutate(ctx, bookingID, func(a *models.Appointment) error {
		return reschedule(a, newDate)
	})
}

// CancelAppointment cancels the booking; the deposit is forfeited
func (s *PaymentService) CancelAppointment(ctx context.Context, bookingID uuid.UUID) (*models.Appointment, error) {
	return s.mutate(ctx, bookingID, cancelAppointment)
}

// SetServiceCost records the final price and recomputes the remaining balance
func (s *PaymentService) SetServiceCost(ctx context.Context, bookingID uuid.UUID, totalServiceCost int64) (*models.Appointment, error) {
	return s.mutate(ctx, bookingID, func(a *models.Appointment) error {
		return setServiceCost(a, totalServiceCost)
	})
}

func (s *PaymentService) mutate(ctx context.Context, bookingID uuid.UUID, change func(*models.Appointment) error) (*models.Appointment, error) {
	var appt *models.Appointment
	err := inBookingTx(ctx, s.db, func(r repos) error {
		var err error
		appt, err = performMutation(ctx, r.appointments, bookingID, change)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "appointment updated",
		"booking_id", appt.ID,
		"status", appt.Status,
		"deposit_status", appt.DepositStatus,
		"reschedule_count", appt.RescheduleCount,
		"remaining_balance", appt.RemainingBalance,
	)
	return appt, nil
}

func performMutation(ctx context.Context, appointments repository.AppointmentRepository, bookingID uuid.UUID, change func(*models.Appointment) error) (*models.Appointment, error) {
	appt, err := appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	if err := change(appt); err != nil {
		return nil, err
	}
	recomputeBalance(appt)

	if err := appointments.Update(ctx, appt); err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}
	return appt, nil
}

// GetPaymentInfo returns the booking's payment record, payments and anomalies
func (s *PaymentService) GetPaymentInfo(ctx context.Context, bookingID uuid.UUID) (*PaymentInfo, error) {
	r := newRepos(s.db)

	appt, err := r.appointments.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}
	payments, err := r.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeInternalError, "payments")
	}
	anomalies, err := r.anomalies.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeInternalError, "payment anomalies")
	}

	return &PaymentInfo{Appointment: appt, Payments: payments, Anomalies: anomalies}, nil
}

// ListGatewayPayments lists the location's gateway payments, newest first
func (s *PaymentService) ListGatewayPayments(ctx context.Context, begin, end time.Time) ([]square.Payment, error) {
	if !begin.IsZero() && !end.IsZero() && end.Before(begin) {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: "end_time is before begin_time"}
	}

	payments, err := s.gateway.ListPayments(ctx, "", begin, end)
	if err != nil {
		return nil, gatewayError(err, ErrCodePaymentNotFound)
	}
	return payments, nil
}
