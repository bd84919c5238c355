package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/idempotency"
	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/money"
	"github.com/shampooches/payments/internal/repository"
	"github.com/shampooches/payments/internal/square"
	"github.com/shampooches/payments/internal/terminal"
)

// Reconciliation is the authoritative checkout status and what recording it did.
type Reconciliation struct {
	CheckoutID string
	Status     string
	Resolution Resolution
}

// CheckoutService collects the remaining balance through a terminal checkout.
type CheckoutService struct {
	db      *db.DB
	gateway Gateway
	poller  *terminal.Poller
	logger  *slog.Logger
	now     func() time.Time
	retry   retryPolicy
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(database *db.DB, gateway Gateway, poller *terminal.Poller, logger *slog.Logger, transportRetries int) *CheckoutService {
	return &CheckoutService{
		db:      database,
		gateway: gateway,
		poller:  poller,
		logger:  logger,
		now:     time.Now,
		retry:   retryPolicy{logger: logger, retries: transportRetries, backoff: 250 * time.Millisecond},
	}
}

// CreateTerminalCheckout sends the booking's remaining balance to a terminal.
// amount must equal the balance recomputed from the current service cost.
func (s *CheckoutService) CreateTerminalCheckout(ctx context.Context, bookingID uuid.UUID, amount int64, deviceID string) (*models.Payment, error) {
	var payment *models.Payment
	err := inBookingTx(ctx, s.db, func(r repos) error {
		var err error
		payment, err = s.performCreateCheckout(ctx, r, bookingID, amount, deviceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *CheckoutService) performCreateCheckout(ctx context.Context, r repos, bookingID uuid.UUID, amount int64, deviceID string) (*models.Payment, error) {
	if !money.IsValidMinorAmount(amount) {
		return nil, &ServiceError{Code: ErrCodeInvalidAmount, Message: "amount must be a positive number of cents"}
	}

	appt, err := r.appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	if appt.Status == models.AppointmentStatusCancelled {
		return nil, &ServiceError{Code: ErrCodeAppointmentClosed, Message: "appointment is cancelled"}
	}
	if appt.FinalPaymentID != nil {
		return nil, &ServiceError{Code: ErrCodeFinalPaymentCompleted, Message: "final payment already collected"}
	}
	if appt.CheckoutID != nil && appt.CheckoutStatus != nil && !terminal.StateOf(*appt.CheckoutStatus).IsTerminal() {
		return nil, &ServiceError{
			Code:    ErrCodeCheckoutInProgress,
			Message: "checkout " + *appt.CheckoutID + " is still " + *appt.CheckoutStatus,
		}
	}

	if balance := money.RemainingBalance(appt.TotalServiceCost); amount != balance {
		return nil, &ServiceError{
			Code:    ErrCodeAmountMismatch,
			Message: "amount does not match the remaining balance",
		}
	}

	attempt := idempotency.NewAttempt(appt.ReferenceID(), idempotency.PurposeFinal, s.now())
	req := square.CheckoutRequest{
		DeviceID:       deviceID,
		Amount:         amount,
		Currency:       money.Currency,
		ReferenceID:    appt.ReferenceID(),
		IdempotencyKey: attempt.Key(),
	}

	co, err := callGateway(ctx, s.retry, "create_terminal_checkout", func(ctx context.Context) (*square.Checkout, error) {
		return s.gateway.CreateTerminalCheckout(ctx, req)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "terminal checkout failed", "booking_id", bookingID, "device_id", deviceID, "error", err)
		return nil, gatewayError(err, ErrCodeCheckoutNotFound)
	}

	payment := &models.Payment{
		ExternalID:     co.ID,
		BookingID:      appt.ID,
		Type:           models.PaymentTypeFinalPayment,
		AmountCents:    amount,
		Currency:       req.Currency,
		Method:         models.PaymentMethodTerminal,
		Status:         models.PaymentStatusPending,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := r.payments.Create(ctx, payment); err != nil && !errors.Is(err, models.ErrDuplicateTransaction) {
		return nil, storeError(err, ErrCodeInternalError, "final payment")
	}

	status := co.Status
	if status == "" {
		status = square.CheckoutPending
	}
	appt.CheckoutID = &co.ID
	appt.CheckoutStatus = &status
	appt.Status = models.AppointmentStatusInProgress
	recomputeBalance(appt)
	if err := r.appointments.Update(ctx, appt); err != nil {
		return nil, storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	s.logger.InfoContext(ctx, "terminal checkout created",
		"booking_id", bookingID,
		"checkout_id", co.ID,
		"device_id", deviceID,
		"amount", amount,
	)
	return payment, nil
}

// GetCheckoutStatus reads the live checkout status once
func (s *CheckoutService) GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error) {
	status, err := s.gateway.GetCheckoutStatus(ctx, checkoutID)
	if err != nil {
		return "", gatewayError(err, ErrCodeCheckoutNotFound)
	}
	return status, nil
}

// PollTerminalCheckoutStatus polls until the checkout is terminal, reporting
// every observed status to onStatusUpdate, and records the outcome. A poll
// timeout records nothing; the caller must reconcile.
func (s *CheckoutService) PollTerminalCheckoutStatus(ctx context.Context, checkoutID string, onStatusUpdate func(status string)) (string, error) {
	status, pollErr := s.poller.Poll(ctx, checkoutID, onStatusUpdate)

	var terminated *terminal.CheckoutTerminatedError
	if pollErr != nil && !errors.As(pollErr, &terminated) {
		s.logger.WarnContext(ctx, "checkout polling ended without a result", "checkout_id", checkoutID, "error", pollErr)
		return "", pollError(pollErr)
	}

	if _, err := s.RecordCheckoutStatus(ctx, checkoutID, status, "", SourcePoller); err != nil {
		return status, err
	}
	if pollErr != nil {
		return status, pollError(pollErr)
	}
	return status, nil
}

// CancelTerminalCheckout cancels a checkout. Cancelling a checkout that has
// already finished is not an error; the returned status is what the gateway reports.
func (s *CheckoutService) CancelTerminalCheckout(ctx context.Context, checkoutID string) (string, error) {
	co, err := callGateway(ctx, s.retry, "cancel_terminal_checkout", func(ctx context.Context) (*square.Checkout, error) {
		return s.gateway.CancelCheckout(ctx, checkoutID)
	})
	if err != nil {
		return "", gatewayError(err, ErrCodeCheckoutNotFound)
	}

	if _, err := s.RecordCheckoutStatus(ctx, checkoutID, co.Status, co.ReferenceID, SourceCancel); err != nil {
		return co.Status, err
	}
	return co.Status, nil
}

// ReconcileCheckout fetches the authoritative checkout status and records it.
func (s *CheckoutService) ReconcileCheckout(ctx context.Context, checkoutID string) (*Reconciliation, error) {
	co, err := s.gateway.GetCheckout(ctx, checkoutID)
	if err != nil {
		return nil, gatewayError(err, ErrCodeCheckoutNotFound)
	}

	res, err := s.recordCheckout(ctx, co, SourceReconcile)
	if err != nil {
		return nil, err
	}
	return &Reconciliation{CheckoutID: co.ID, Status: co.Status, Resolution: res}, nil
}

// GetTerminalDevices lists terminals paired to the shop location
func (s *CheckoutService) GetTerminalDevices(ctx context.Context) ([]square.Device, error) {
	devices, err := s.gateway.ListDevices(ctx, "")
	if err != nil {
		return nil, gatewayError(err, ErrCodeInternalError)
	}
	return devices, nil
}

// RecordCheckoutStatus applies an observed checkout status to the booking
// under the booking lock. Poller, webhook, cancel and reconcile all record
// through here, so their races resolve by status precedence.
func (s *CheckoutService) RecordCheckoutStatus(ctx context.Context, checkoutID, status, referenceID, source string) (Resolution, error) {
	co := &square.Checkout{ID: checkoutID, Status: status, ReferenceID: referenceID}

	if status == square.CheckoutCompleted {
		if full, err := s.gateway.GetCheckout(ctx, checkoutID); err == nil {
			co.PaymentIDs = full.PaymentIDs
			co.AmountMoney = full.AmountMoney
		} else {
			s.logger.WarnContext(ctx, "could not read payment ids of completed checkout", "checkout_id", checkoutID, "error", err)
		}
	}

	return s.recordCheckout(ctx, co, source)
}

func (s *CheckoutService) recordCheckout(ctx context.Context, co *square.Checkout, source string) (Resolution, error) {
	payment, err := repository.NewPaymentRepository(s.db).FindByExternalID(ctx, co.ID)
	if errors.Is(err, models.ErrNotFound) {
		return s.adoptCheckout(ctx, co, source)
	}
	if err != nil {
		return "", storeError(err, ErrCodeInternalError, "checkout")
	}

	var res Resolution
	err = inBookingTx(ctx, s.db, func(r repos) error {
		var err error
		res, err = recordStatus(ctx, r, s.logger, payment.BookingID, co.ID, co.Status, finalPaymentID(co), source)
		return err
	})
	return res, err
}

// adoptCheckout records a checkout the gateway reports but no local write
// committed, for example after a crash between creating it and the commit.
// The checkout's reference id names the booking.
func (s *CheckoutService) adoptCheckout(ctx context.Context, co *square.Checkout, source string) (Resolution, error) {
	bookingID, err := uuid.Parse(co.ReferenceID)
	if err != nil {
		s.logger.InfoContext(ctx, "ignoring status of unknown checkout",
			"checkout_id", co.ID,
			"reference_id", co.ReferenceID,
			"source", source,
		)
		return ResolutionNoop, nil
	}

	if co.AmountMoney.Amount <= 0 {
		full, err := s.gateway.GetCheckout(ctx, co.ID)
		if err != nil {
			return "", gatewayError(err, ErrCodeCheckoutNotFound)
		}
		co.AmountMoney = full.AmountMoney
		if len(co.PaymentIDs) == 0 {
			co.PaymentIDs = full.PaymentIDs
		}
	}

	var res Resolution
	err = inBookingTx(ctx, s.db, func(r repos) error {
		var err error
		res, err = performAdoptCheckout(ctx, r, s.logger, bookingID, co, source)
		return err
	})
	return res, err
}

func performAdoptCheckout(ctx context.Context, r repos, logger *slog.Logger, bookingID uuid.UUID, co *square.Checkout, source string) (Resolution, error) {
	appt, err := r.appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return "", storeError(err, ErrCodeBookingNotFound, "appointment")
	}

	amount := co.AmountMoney.Amount
	if amount <= 0 {
		amount = money.RemainingBalance(appt.TotalServiceCost)
	}
	if amount <= 0 {
		logger.WarnContext(ctx, "unknown checkout has no amount to record", "booking_id", bookingID, "checkout_id", co.ID)
		return ResolutionNoop, nil
	}
	currency := co.AmountMoney.Currency
	if currency == "" {
		currency = money.Currency
	}

	payment := &models.Payment{
		ExternalID:  co.ID,
		BookingID:   appt.ID,
		Type:        models.PaymentTypeFinalPayment,
		AmountCents: amount,
		Currency:    currency,
		Method:      models.PaymentMethodTerminal,
		Status:      models.PaymentStatusPending,
	}
	if err := r.payments.Create(ctx, payment); err != nil && !errors.Is(err, models.ErrDuplicateTransaction) {
		return "", storeError(err, ErrCodeInternalError, "final payment")
	}

	currentRunning := appt.CheckoutID != nil && appt.CheckoutStatus != nil && !terminal.StateOf(*appt.CheckoutStatus).IsTerminal()
	if appt.FinalPaymentID == nil && !currentRunning {
		pending := square.CheckoutPending
		appt.CheckoutID = &co.ID
		appt.CheckoutStatus = &pending
		if appt.Status == models.AppointmentStatusPending {
			appt.Status = models.AppointmentStatusInProgress
		}
		recomputeBalance(appt)
		if err := r.appointments.Update(ctx, appt); err != nil {
			return "", storeError(err, ErrCodeBookingNotFound, "appointment")
		}
	}

	logger.WarnContext(ctx, "recording checkout missing from local state",
		"booking_id", bookingID,
		"checkout_id", co.ID,
		"amount", amount,
		"source", source,
	)
	return recordStatus(ctx, r, logger, bookingID, co.ID, co.Status, finalPaymentID(co), source)
}

func finalPaymentID(co *square.Checkout) string {
	if len(co.PaymentIDs) > 0 {
		return co.PaymentIDs[0]
	}
	return co.ID
}
