// Package handlers implements HTTP handlers for the payments API.
package handlers

import (
	"log/slog"

	"github.com/shampooches/payments/internal/service"
)

// SignatureVerifier checks the signature header of a webhook delivery.
type SignatureVerifier interface {
	Verify(body []byte, signature, notificationURL string) bool
}

// Handler serves every payments endpoint
type Handler struct {
	bookings      service.Bookings
	checkouts     service.Checkouts
	webhooks      service.WebhookEvents
	verifier      SignatureVerifier
	healthChecker service.HealthChecker
	logger        *slog.Logger
	webhookURL    string
}

// NewHandler creates a new Handler with injected service dependencies.
// webhookURL is the notification URL registered with the gateway; it is part
// of the signed payload.
func NewHandler(
	bookings service.Bookings,
	checkouts service.Checkouts,
	webhooks service.WebhookEvents,
	verifier SignatureVerifier,
	webhookURL string,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bookings:      bookings,
		checkouts:     checkouts,
		webhooks:      webhooks,
		verifier:      verifier,
		webhookURL:    webhookURL,
		healthChecker: healthChecker,
		logger:        logger,
	}
}
