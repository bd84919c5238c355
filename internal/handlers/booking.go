package handlers

import (
	"net/http"
	"strings"

	"github.com/shampooches/payments/internal/api"
	"github.com/shampooches/payments/internal/middleware"
)

// CreateBooking handles POST /api/v1/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBookingRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	appt, err := h.bookings.CreateAppointment(r.Context(), req.AppointmentDate, req.TotalServiceCost)
	if err != nil {
		h.handleServiceError(w, r, err, "create_booking")
		return
	}

	h.writeJSON(w, r, http.StatusCreated, toAppointment(appt))
}

// CollectDeposit handles POST /api/v1/bookings/{bookingId}/deposit
func (h *Handler) CollectDeposit(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.bookingIDParam(w, r)
	if !ok {
		return
	}
	var req api.CollectDepositRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.SourceID == "" {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "source_id is required")
		return
	}

	payment, err := h.bookings.CollectDeposit(r.Context(), bookingID, req.SourceID)
	if err != nil {
		h.handleServiceError(w, r, err, "collect_deposit")
		return
	}

	h.writeJSON(w, r, http.StatusCreated, toPayment(payment))
}

// GetPaymentInfo handles GET /api/v1/bookings/{bookingId}/payment
func (h *Handler) GetPaymentInfo(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.bookingIDParam(w, r)
	if !ok {
		return
	}

	info, err := h.bookings.GetPaymentInfo(r.Context(), bookingID)
	if err != nil {
		h.handleServiceError(w, r, err, "get_payment_info")
		return
	}

	h.writeJSON(w, r, http.StatusOK, toPaymentInfo(info))
}

// RescheduleBooking handles POST /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.bookingIDParam(w, r)
	if !ok {
		return
	}
	var req api.RescheduleRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.AppointmentDate.IsZero() {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "appointment_date is required")
		return
	}

	appt, err := h.bookings.RescheduleAppointment(r.Context(), bookingID, req.AppointmentDate)
	if err != nil {
		h.handleServiceError(w, r, err, "reschedule_booking")
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAppointment(appt))
}

// CancelBooking handles POST /api/v1/bookings/{bookingId}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.bookingIDParam(w, r)
	if !ok {
		return
	}

	appt, err := h.bookings.CancelAppointment(r.Context(), bookingID)
	if err != nil {
		h.handleServiceError(w, r, err, "cancel_booking")
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAppointment(appt))
}

// SetServiceCost handles PUT /api/v1/bookings/{bookingId}/service-cost
func (h *Handler) SetServiceCost(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.bookingIDParam(w, r)
	if !ok {
		return
	}
	var req api.ServiceCostRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	appt, err := h.bookings.SetServiceCost(r.Context(), bookingID, req.TotalServiceCost)
	if err != nil {
		h.handleServiceError(w, r, err, "set_service_cost")
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAppointment(appt))
}

// RefundDeposit handles POST /api/v1/bookings/{bookingId}/refund. The
// refund is attributed to the staff member of the session token.
func (h *Handler) RefundDeposit(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.bookingIDParam(w, r)
	if !ok {
		return
	}
	var req api.RefundRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "reason is required")
		return
	}

	payment, err := h.bookings.RequestDepositRefund(r.Context(), bookingID, req.Reason, middleware.StaffID(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err, "refund_deposit")
		return
	}

	h.writeJSON(w, r, http.StatusCreated, toPayment(payment))
}

// ListGatewayPayments handles GET /api/v1/payments
func (h *Handler) ListGatewayPayments(w http.ResponseWriter, r *http.Request) {
	begin, end, ok := h.timeRange(w, r)
	if !ok {
		return
	}

	payments, err := h.bookings.ListGatewayPayments(r.Context(), begin, end)
	if err != nil {
		h.handleServiceError(w, r, err, "list_gateway_payments")
		return
	}

	out := make([]api.GatewayPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, toGatewayPayment(p))
	}
	h.writeJSON(w, r, http.StatusOK, out)
}
