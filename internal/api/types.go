package api

import (
	"time"

	"github.com/google/uuid"
)

// ErrorCode is the machine-readable error field of an error body.
type ErrorCode string

// Error codes returned by the API
const (
	ErrorCodeInvalidRequest        ErrorCode = "invalid_request"
	ErrorCodeInvalidAmount         ErrorCode = "invalid_amount"
	ErrorCodeAmountMismatch        ErrorCode = "amount_mismatch"
	ErrorCodeBookingNotFound       ErrorCode = "booking_not_found"
	ErrorCodeCheckoutNotFound      ErrorCode = "checkout_not_found"
	ErrorCodePaymentNotFound       ErrorCode = "payment_not_found"
	ErrorCodeAppointmentClosed     ErrorCode = "appointment_closed"
	ErrorCodeDepositAlreadyPaid    ErrorCode = "deposit_already_collected"
	ErrorCodeDepositNotCollected   ErrorCode = "deposit_not_collected"
	ErrorCodeAlreadyRefunded       ErrorCode = "already_refunded"
	ErrorCodeRescheduleLimit       ErrorCode = "reschedule_limit_reached"
	ErrorCodeFinalPaymentCompleted ErrorCode = "final_payment_completed"
	ErrorCodeCheckoutInProgress    ErrorCode = "checkout_in_progress"
	ErrorCodeCheckoutTerminated    ErrorCode = "checkout_terminated"
	ErrorCodePollTimeout           ErrorCode = "poll_timeout"
	ErrorCodePollCanceled          ErrorCode = "poll_canceled"
	ErrorCodePaymentRejected       ErrorCode = "payment_rejected"
	ErrorCodeGatewayUnavailable    ErrorCode = "gateway_unavailable"
	ErrorCodeConflict              ErrorCode = "conflict"
	ErrorCodeInvalidSignature      ErrorCode = "invalid_signature"
	ErrorCodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   ErrorCode `json:"error"`
	Message string    `json:"message"`
}

// HealthStatus values
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status HealthStatus `json:"status"`
}

// CreateBookingRequest is the body of POST /api/v1/bookings
type CreateBookingRequest struct {
	AppointmentDate  time.Time `json:"appointment_date"`
	TotalServiceCost int64     `json:"total_service_cost"`
}

// CollectDepositRequest is the body of POST /api/v1/bookings/{bookingId}/deposit
type CollectDepositRequest struct {
	SourceID string `json:"source_id"`
}

// RescheduleRequest is the body of POST /api/v1/bookings/{bookingId}/reschedule
type RescheduleRequest struct {
	AppointmentDate time.Time `json:"appointment_date"`
}

// ServiceCostRequest is the body of PUT /api/v1/bookings/{bookingId}/service-cost
type ServiceCostRequest struct {
	TotalServiceCost int64 `json:"total_service_cost"`
}

// RefundRequest is the body of POST /api/v1/bookings/{bookingId}/refund
type RefundRequest struct {
	Reason string `json:"reason"`
}

// CreateCheckoutRequest is the body of POST /api/v1/terminal/checkouts
type CreateCheckoutRequest struct {
	DeviceID  string    `json:"device_id"`
	Amount    int64     `json:"amount"`
	BookingID uuid.UUID `json:"booking_id"`
}

// Appointment is the payment view of a booking.
type Appointment struct {
	AppointmentDate         time.Time  `json:"appointment_date"`
	OriginalAppointmentDate *time.Time `json:"original_appointment_date,omitempty"`
	DepositPaymentID        *string    `json:"deposit_payment_id,omitempty"`
	FinalPaymentID          *string    `json:"final_payment_id,omitempty"`
	CheckoutID              *string    `json:"checkout_id,omitempty"`
	CheckoutStatus          *string    `json:"checkout_status,omitempty"`
	Status                  string     `json:"status"`
	DepositStatus           string     `json:"deposit_status"`
	DepositAmount           int64      `json:"deposit_amount"`
	TotalServiceCost        int64      `json:"total_service_cost"`
	RemainingBalance        int64      `json:"remaining_balance"`
	RescheduleCount         int        `json:"reschedule_count"`
	BookingID               uuid.UUID  `json:"booking_id"`
}

// Payment is one money movement recorded against a booking.
type Payment struct {
	CreatedAt   time.Time `json:"created_at"`
	Reason      *string   `json:"reason,omitempty"`
	ProcessedBy *string   `json:"processed_by,omitempty"`
	PaymentID   string    `json:"payment_id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method,omitempty"`
	Amount      int64     `json:"amount"`
	BookingID   uuid.UUID `json:"booking_id"`
}

// Anomaly is a conflicting terminal status that was recorded but not applied.
type Anomaly struct {
	CreatedAt      time.Time `json:"created_at"`
	ExternalID     string    `json:"external_id"`
	StoredStatus   string    `json:"stored_status"`
	IncomingStatus string    `json:"incoming_status"`
	Source         string    `json:"source"`
}

// PaymentInfo is the body of GET /api/v1/bookings/{bookingId}/payment
type PaymentInfo struct {
	Appointment Appointment `json:"appointment"`
	Payments    []Payment   `json:"payments"`
	Anomalies   []Anomaly   `json:"anomalies"`
}

// CheckoutStatus is a point-in-time terminal checkout status.
type CheckoutStatus struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
}

// Reconciliation is the body of POST /api/v1/terminal/checkouts/{checkoutId}/reconcile
type Reconciliation struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
	Resolution string `json:"resolution"`
}

// Device is a paired terminal.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GatewayPayment is a payment as the gateway reports it.
type GatewayPayment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Currency    string `json:"currency"`
	ReferenceID string `json:"reference_id,omitempty"`
	Note        string `json:"note,omitempty"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	Amount      int64  `json:"amount"`
}

// CheckoutEvent is the data of a `status` or `result` server-sent event.
type CheckoutEvent struct {
	Error      *ErrorResponse `json:"error,omitempty"`
	CheckoutID string         `json:"checkout_id"`
	Status     string         `json:"status,omitempty"`
}
