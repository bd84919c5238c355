package service

import (
	"time"

	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/money"
	"github.com/shampooches/payments/internal/square"
)

// Resolution is the outcome of comparing an incoming status with the stored one.
type Resolution string

const (
	// ResolutionApply means the incoming status replaces the stored one.
	ResolutionApply Resolution = "apply"
	// ResolutionNoop means the incoming status is stale or a repeat.
	ResolutionNoop Resolution = "noop"
	// ResolutionAnomaly means a second, conflicting terminal status arrived.
	ResolutionAnomaly Resolution = "anomaly"
)

// Sources of a status observation
const (
	SourcePoller    = "poller"
	SourceWebhook   = "webhook"
	SourceReconcile = "reconcile"
	SourceCancel    = "cancel"
	SourceGateway   = "gateway"
)

// PaymentStatusFromGateway maps a gateway payment or checkout status.
func PaymentStatusFromGateway(status string) models.PaymentStatus {
	switch status {
	case square.PaymentCompleted:
		return models.PaymentStatusCompleted
	case square.PaymentCanceled, square.PaymentFailed:
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

// ResolveStatus orders status updates by precedence: any terminal status
// beats pending, the first terminal status wins, and a different terminal
// status arriving later is an anomaly. A refund may follow completion.
func ResolveStatus(stored, incoming models.PaymentStatus) Resolution {
	if stored == incoming {
		return ResolutionNoop
	}
	if !stored.IsTerminal() {
		return ResolutionApply
	}
	if !incoming.IsTerminal() {
		return ResolutionNoop
	}

	switch {
	case stored == models.PaymentStatusCompleted && incoming == models.PaymentStatusRefunded:
		return ResolutionApply
	case stored == models.PaymentStatusRefunded && incoming == models.PaymentStatusCompleted:
		return ResolutionNoop
	default:
		return ResolutionAnomaly
	}
}

// recomputeBalance derives the remaining balance from the service cost.
func recomputeBalance(a *models.Appointment) {
	a.RemainingBalance = money.RemainingBalance(a.TotalServiceCost)
}

// applyDepositStatus links the deposit payment and applies the deposit once
// it is completed. It reports whether a field changed.
func applyDepositStatus(a *models.Appointment, paymentID string, status models.PaymentStatus) bool {
	changed := false
	if a.DepositPaymentID == nil {
		a.DepositPaymentID = &paymentID
		changed = true
	}
	if status == models.PaymentStatusCompleted && a.DepositStatus == models.DepositStatusPending {
		a.DepositStatus = models.DepositStatusApplied
		changed = true
	}
	return changed
}

// reschedule moves the appointment, keeping the first booked date.
func reschedule(a *models.Appointment, newDate time.Time) error {
	if a.Status == models.AppointmentStatusCancelled || a.Status == models.AppointmentStatusCompleted {
		return &ServiceError{
			Code:    ErrCodeAppointmentClosed,
			Message: "appointment is " + string(a.Status),
		}
	}
	if a.RescheduleCount >= money.MaxReschedules {
		return &ServiceError{
			Code:    ErrCodeRescheduleLimit,
			Message: "appointment has already been rescheduled the maximum number of times",
		}
	}

	if a.OriginalAppointmentDate == nil {
		original := a.AppointmentDate
		a.OriginalAppointmentDate = &original
	}
	a.AppointmentDate = newDate
	a.RescheduleCount++
	return nil
}

// cancelAppointment cancels the appointment and forfeits the deposit unless
// it was already refunded.
func cancelAppointment(a *models.Appointment) error {
	switch a.Status {
	case models.AppointmentStatusCompleted:
		return &ServiceError{
			Code:    ErrCodeAppointmentClosed,
			Message: "completed appointments cannot be cancelled",
		}
	case models.AppointmentStatusCancelled:
		return nil
	}

	a.Status = models.AppointmentStatusCancelled
	if a.DepositStatus != models.DepositStatusRefunded {
		a.DepositStatus = models.DepositStatusForfeited
	}
	return nil
}

// setServiceCost updates the cost and its derived balance.
func setServiceCost(a *models.Appointment, cost int64) error {
	if cost < 0 {
		return &ServiceError{
			Code:    ErrCodeInvalidAmount,
			Message: "total service cost cannot be negative",
		}
	}
	if a.FinalPaymentID != nil {
		return &ServiceError{
			Code:    ErrCodeFinalPaymentCompleted,
			Message: "final payment already collected",
		}
	}
	a.TotalServiceCost = cost
	recomputeBalance(a)
	return nil
}

// applyCheckoutOutcome records a resolved checkout status on the appointment.
func applyCheckoutOutcome(a *models.Appointment, status models.PaymentStatus, finalPaymentID string) {
	switch status {
	case models.PaymentStatusCompleted:
		a.FinalPaymentID = &finalPaymentID
		a.Status = models.AppointmentStatusCompleted
	case models.PaymentStatusFailed:
		if a.Status == models.AppointmentStatusInProgress {
			a.Status = models.AppointmentStatusPending
		}
	}
}
