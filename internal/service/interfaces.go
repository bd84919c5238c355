package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/square"
	"github.com/shampooches/payments/internal/webhook"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Gateway is the subset of the payment gateway client the services call.
type Gateway interface {
	CreateDeposit(ctx context.Context, req square.DepositRequest) (*square.Payment, error)
	CreateTerminalCheckout(ctx context.Context, req square.CheckoutRequest) (*square.Checkout, error)
	GetCheckout(ctx context.Context, checkoutID string) (*square.Checkout, error)
	GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error)
	CancelCheckout(ctx context.Context, checkoutID string) (*square.Checkout, error)
	CreateRefund(ctx context.Context, req square.RefundRequest) (*square.Refund, error)
	GetPayment(ctx context.Context, paymentID string) (*square.Payment, error)
	ListPayments(ctx context.Context, locationID string, begin, end time.Time) ([]square.Payment, error)
	ListDevices(ctx context.Context, locationID string) ([]square.Device, error)
}

// Bookings handles deposit, schedule and cost changes of a booking
type Bookings interface {
	CreateAppointment(ctx context.Context, appointmentDate time.Time, totalServiceCost int64) (*models.Appointment, error)
	CollectDeposit(ctx context.Context, bookingID uuid.UUID, sourceID string) (*models.Payment, error)
	RequestDepositRefund(ctx context.Context, bookingID uuid.UUID, reason, staffID string) (*models.Payment, error)
	RescheduleAppointment(ctx context.Context, bookingID uuid.UUID, newDate time.Time) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, bookingID uuid.UUID) (*models.Appointment, error)
	SetServiceCost(ctx context.Context, bookingID uuid.UUID, totalServiceCost int64) (*models.Appointment, error)
	GetPaymentInfo(ctx context.Context, bookingID uuid.UUID) (*PaymentInfo, error)
	ListGatewayPayments(ctx context.Context, begin, end time.Time) ([]square.Payment, error)
}

// Checkouts handles the terminal side of final payment collection
type Checkouts interface {
	CreateTerminalCheckout(ctx context.Context, bookingID uuid.UUID, amount int64, deviceID string) (*models.Payment, error)
	GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error)
	PollTerminalCheckoutStatus(ctx context.Context, checkoutID string, onStatusUpdate func(status string)) (string, error)
	CancelTerminalCheckout(ctx context.Context, checkoutID string) (string, error)
	ReconcileCheckout(ctx context.Context, checkoutID string) (*Reconciliation, error)
	GetTerminalDevices(ctx context.Context) ([]square.Device, error)
}

// WebhookEvents processes verified webhook deliveries
type WebhookEvents interface {
	Process(ctx context.Context, e *webhook.Event) (duplicate bool, err error)
}

// Ensure concrete types implement interfaces
var (
	_ Gateway          = (*square.Client)(nil)
	_ Bookings         = (*PaymentService)(nil)
	_ Checkouts        = (*CheckoutService)(nil)
	_ WebhookEvents    = (*WebhookProcessor)(nil)
	_ webhook.Handlers = (*WebhookProcessor)(nil)
)
