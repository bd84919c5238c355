package models

import (
	"time"

	"github.com/google/uuid"
)

// DepositStatus tracks the booking deposit
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusApplied   DepositStatus = "applied"
	DepositStatusForfeited DepositStatus = "forfeited"
	DepositStatusRefunded  DepositStatus = "refunded"
)

// AppointmentStatus is the appointment's own lifecycle, separate from the deposit.
type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "pending"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// Appointment is the payment record of one booking.
type Appointment struct {
	AppointmentDate         time.Time         `db:"appointment_date"`
	CreatedAt               time.Time         `db:"created_at"`
	UpdatedAt               time.Time         `db:"updated_at"`
	OriginalAppointmentDate *time.Time        `db:"original_appointment_date"`
	DepositPaymentID        *string           `db:"deposit_payment_id"`
	FinalPaymentID          *string           `db:"final_payment_id"`
	CheckoutID              *string           `db:"checkout_id"`
	CheckoutStatus          *string           `db:"checkout_status"`
	Status                  AppointmentStatus `db:"status"`
	DepositStatus           DepositStatus     `db:"deposit_status"`
	DepositAmount           int64             `db:"deposit_amount"`
	TotalServiceCost        int64             `db:"total_service_cost"`
	RemainingBalance        int64             `db:"remaining_balance"`
	Version                 int64             `db:"version"`
	RescheduleCount         int               `db:"reschedule_count"`
	ID                      uuid.UUID         `db:"id"`
}

// ReferenceID is the id sent to the gateway to correlate payments with this booking.
func (a *Appointment) ReferenceID() string {
	return a.ID.String()
}
