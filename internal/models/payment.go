package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentType represents the kind of money movement
type PaymentType string

const (
	PaymentTypeDeposit      PaymentType = "deposit"
	PaymentTypeFinalPayment PaymentType = "final_payment"
	PaymentTypeRefund       PaymentType = "refund"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsTerminal reports whether the status can no longer change through the gateway.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// Payment methods
const (
	PaymentMethodCard     = "card"
	PaymentMethodTerminal = "terminal"
)

// Payment is one monetary transaction against a booking. ExternalID is the
// gateway object tracked: the payment for a deposit, the terminal checkout
// for a final payment, the refund for a refund.
type Payment struct {
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	ProcessedBy    *string       `db:"processed_by"`
	Reason         *string       `db:"reason"`
	ExternalID     string        `db:"external_id"`
	Currency       string        `db:"currency"`
	Method         string        `db:"method"`
	IdempotencyKey string        `db:"idempotency_key"`
	Type           PaymentType   `db:"type"`
	Status         PaymentStatus `db:"status"`
	AmountCents    int64         `db:"amount_cents"`
	ID             uuid.UUID     `db:"id"`
	BookingID      uuid.UUID     `db:"booking_id"`
}

// PaymentAnomaly records a terminal status that conflicted with the stored one.
type PaymentAnomaly struct {
	CreatedAt      time.Time     `db:"created_at"`
	ExternalID     string        `db:"external_id"`
	Source         string        `db:"source"`
	StoredStatus   PaymentStatus `db:"stored_status"`
	IncomingStatus string        `db:"incoming_status"`
	ID             uuid.UUID     `db:"id"`
	BookingID      uuid.UUID     `db:"booking_id"`
}

// IdempotencyKey tracks processed requests to prevent duplicate transactions
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}

// WebhookEvent marks a delivered notification as processed
type WebhookEvent struct {
	ReceivedAt time.Time `db:"received_at"`
	EventID    string    `db:"event_id"`
	Type       string    `db:"type"`
}
