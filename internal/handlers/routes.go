package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shampooches/payments/internal/api"
	"github.com/shampooches/payments/internal/config"
	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/middleware"
	"github.com/shampooches/payments/internal/repository"
	"github.com/shampooches/payments/internal/service"
	"github.com/shampooches/payments/internal/square"
	"github.com/shampooches/payments/internal/terminal"
	"github.com/shampooches/payments/internal/webhook"
)

// rateLimitIdleTTL is how long an idle client keeps its rate limit bucket
const rateLimitIdleTTL = 10 * time.Minute

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(
	database *db.DB,
	cfg *config.Config,
	logger *slog.Logger,
) (http.Handler, error) {
	gateway := square.New(cfg.Square, logger)
	poller := terminal.NewPoller(gateway, logger,
		terminal.WithInterval(cfg.Terminal.PollInterval),
		terminal.WithMaxAttempts(cfg.Terminal.PollMaxAttempts),
	)

	paymentService := service.NewPaymentService(database, gateway, logger, cfg.Square.TransportRetries)
	checkoutService := service.NewCheckoutService(database, gateway, poller, logger, cfg.Square.TransportRetries)
	webhookProcessor := service.NewWebhookProcessor(database, checkoutService, logger)

	handler := NewHandler(
		paymentService,
		checkoutService,
		webhookProcessor,
		webhook.NewVerifier(cfg.Square.WebhookSignatureKey),
		cfg.Square.WebhookURL,
		database,
		logger,
	)

	validate, err := api.RequestValidator(logger)
	if err != nil {
		return nil, err
	}
	idempotencyRepo := repository.NewIdempotencyRepository(database)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.App.TrustedProxies)
	if err != nil {
		return nil, err
	}

	return handler.routes(
		[]byte(cfg.Auth.JWTSecret),
		validate,
		middleware.Idempotency(idempotencyRepo, logger),
		middleware.NewClientLimiter(cfg.App.ClientRatePerMinute, max(1, cfg.App.ClientRatePerMinute/2), rateLimitIdleTTL, trustedProxies...),
	), nil
}

// routes mounts every endpoint. Staff routes under /api/ pass through
// authentication, schema validation and idempotent replay in that order.
func (h *Handler) routes(
	jwtSecret []byte,
	validate func(http.Handler) http.Handler,
	idempotency func(http.Handler) http.Handler,
	limiter *middleware.ClientLimiter,
) http.Handler {
	staff := http.NewServeMux()
	staff.HandleFunc("POST /api/v1/bookings", h.CreateBooking)
	staff.HandleFunc("POST /api/v1/bookings/{bookingId}/deposit", h.CollectDeposit)
	staff.HandleFunc("GET /api/v1/bookings/{bookingId}/payment", h.GetPaymentInfo)
	staff.HandleFunc("POST /api/v1/bookings/{bookingId}/reschedule", h.RescheduleBooking)
	staff.HandleFunc("POST /api/v1/bookings/{bookingId}/cancel", h.CancelBooking)
	staff.HandleFunc("PUT /api/v1/bookings/{bookingId}/service-cost", h.SetServiceCost)
	staff.HandleFunc("POST /api/v1/bookings/{bookingId}/refund", h.RefundDeposit)
	staff.HandleFunc("POST /api/v1/terminal/checkouts", h.CreateTerminalCheckout)
	staff.HandleFunc("GET /api/v1/terminal/checkouts/{checkoutId}", h.GetTerminalCheckout)
	staff.HandleFunc("DELETE /api/v1/terminal/checkouts/{checkoutId}", h.CancelTerminalCheckout)
	staff.HandleFunc("GET /api/v1/terminal/checkouts/{checkoutId}/events", h.StreamTerminalCheckout)
	staff.HandleFunc("POST /api/v1/terminal/checkouts/{checkoutId}/reconcile", h.ReconcileTerminalCheckout)
	staff.HandleFunc("GET /api/v1/terminal/devices", h.ListTerminalDevices)
	staff.HandleFunc("GET /api/v1/payments", h.ListGatewayPayments)

	var staffHandler http.Handler = staff
	staffHandler = idempotency(staffHandler)
	staffHandler = validate(staffHandler)
	staffHandler = middleware.RequireRole(jwtSecret, h.logger, middleware.RoleStaff, middleware.RoleAdmin)(staffHandler)

	mux := http.NewServeMux()
	api.RegisterDocsRoutes(mux, h.logger)
	mux.HandleFunc("GET /health", h.GetHealth)
	mux.HandleFunc("POST /webhooks/square", h.ReceiveSquareWebhook)
	mux.Handle("/api/", staffHandler)

	return middleware.RateLimit(limiter, h.logger)(mux)
}
