package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/models"
)

// recordStatus resolves rawStatus for the payment tracked under externalID
// and applies it to the payment and the booking. The booking row is locked
// before the payment is read, so concurrent recorders see each other's writes.
// Conflicting terminal statuses are stored as anomalies and never applied.
func recordStatus(
	ctx context.Context,
	r repos,
	logger *slog.Logger,
	bookingID uuid.UUID,
	externalID, rawStatus, finalPaymentID, source string,
) (Resolution, error) {
	appt, err := r.appointments.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return "", storeError(err, ErrCodeBookingNotFound, "appointment")
	}
	payment, err := r.payments.FindByExternalID(ctx, externalID)
	if err != nil {
		return "", storeError(err, ErrCodePaymentNotFound, "payment")
	}

	incoming := PaymentStatusFromGateway(rawStatus)
	res := ResolveStatus(payment.Status, incoming)

	logger = logger.With(
		"booking_id", bookingID,
		"external_id", externalID,
		"stored_status", payment.Status,
		"incoming_status", rawStatus,
		"source", source,
	)

	changed := false
	isCurrentCheckout := appt.CheckoutID != nil && *appt.CheckoutID == externalID
	if isCurrentCheckout && (res == ResolutionApply || (res == ResolutionNoop && !payment.Status.IsTerminal())) {
		if appt.CheckoutStatus == nil || *appt.CheckoutStatus != rawStatus {
			appt.CheckoutStatus = &rawStatus
			changed = true
		}
	}

	switch res {
	case ResolutionAnomaly:
		logger.WarnContext(ctx, "conflicting terminal payment status ignored")
		anomaly := &models.PaymentAnomaly{
			BookingID:      bookingID,
			ExternalID:     externalID,
			StoredStatus:   payment.Status,
			IncomingStatus: rawStatus,
			Source:         source,
		}
		if err := r.anomalies.Create(ctx, anomaly); err != nil {
			return "", storeError(err, ErrCodeInternalError, "payment anomaly")
		}
		return res, nil

	case ResolutionNoop:
		logger.DebugContext(ctx, "payment status unchanged")

	case ResolutionApply:
		if err := r.payments.UpdateStatus(ctx, payment.ID, incoming); err != nil {
			return "", storeError(err, ErrCodePaymentNotFound, "payment")
		}

		switch payment.Type {
		case models.PaymentTypeDeposit:
			changed = applyDepositOutcome(appt, externalID, incoming) || changed
		case models.PaymentTypeFinalPayment:
			// A superseded checkout can only settle the booking, never reopen it.
			if isCurrentCheckout || incoming == models.PaymentStatusCompleted {
				applyCheckoutOutcome(appt, incoming, finalPaymentID)
				changed = true
			}
		}
		logger.InfoContext(ctx, "payment status recorded", "status", incoming)
	}

	if changed {
		recomputeBalance(appt)
		if err := r.appointments.Update(ctx, appt); err != nil {
			return "", storeError(err, ErrCodeBookingNotFound, "appointment")
		}
	}
	return res, nil
}

// applyDepositOutcome applies a resolved deposit payment status. A failed
// deposit is unlinked so the deposit can be collected again.
func applyDepositOutcome(a *models.Appointment, paymentID string, status models.PaymentStatus) bool {
	if status != models.PaymentStatusFailed {
		return applyDepositStatus(a, paymentID, status)
	}
	if a.DepositPaymentID != nil && *a.DepositPaymentID == paymentID && a.DepositStatus == models.DepositStatusPending {
		a.DepositPaymentID = nil
		return true
	}
	return false
}
