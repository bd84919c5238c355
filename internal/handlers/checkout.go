package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shampooches/payments/internal/api"
	"github.com/shampooches/payments/internal/service"
)

// Server-sent event names of the checkout stream
const (
	eventStatus = "status"
	eventResult = "result"
)

// CreateTerminalCheckout handles POST /api/v1/terminal/checkouts
func (h *Handler) CreateTerminalCheckout(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCheckoutRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.DeviceID == "" {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "device_id is required")
		return
	}

	payment, err := h.checkouts.CreateTerminalCheckout(r.Context(), req.BookingID, req.Amount, req.DeviceID)
	if err != nil {
		h.handleServiceError(w, r, err, "create_terminal_checkout")
		return
	}

	h.writeJSON(w, r, http.StatusCreated, toPayment(payment))
}

// GetTerminalCheckout handles GET /api/v1/terminal/checkouts/{checkoutId}
func (h *Handler) GetTerminalCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID, ok := h.checkoutIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.checkouts.GetCheckoutStatus(r.Context(), checkoutID)
	if err != nil {
		h.handleServiceError(w, r, err, "get_terminal_checkout")
		return
	}

	h.writeJSON(w, r, http.StatusOK, api.CheckoutStatus{CheckoutID: checkoutID, Status: status})
}

// CancelTerminalCheckout handles DELETE /api/v1/terminal/checkouts/{checkoutId}
func (h *Handler) CancelTerminalCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID, ok := h.checkoutIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.checkouts.CancelTerminalCheckout(r.Context(), checkoutID)
	if err != nil {
		h.handleServiceError(w, r, err, "cancel_terminal_checkout")
		return
	}

	h.writeJSON(w, r, http.StatusOK, api.CheckoutStatus{CheckoutID: checkoutID, Status: status})
}

// ReconcileTerminalCheckout handles POST /api/v1/terminal/checkouts/{checkoutId}/reconcile
func (h *Handler) ReconcileTerminalCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID, ok := h.checkoutIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.checkouts.ReconcileCheckout(r.Context(), checkoutID)
	if err != nil {
		h.handleServiceError(w, r, err, "reconcile_terminal_checkout")
		return
	}

	h.writeJSON(w, r, http.StatusOK, api.Reconciliation{
		CheckoutID: rec.CheckoutID,
		Status:     rec.Status,
		Resolution: string(rec.Resolution),
	})
}

// ListTerminalDevices handles GET /api/v1/terminal/devices
func (h *Handler) ListTerminalDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.checkouts.GetTerminalDevices(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "list_terminal_devices")
		return
	}

	out := make([]api.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, api.Device{ID: d.ID, Name: d.Name})
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

// StreamTerminalCheckout handles GET /api/v1/terminal/checkouts/{checkoutId}/events.
// Every observed status is sent as a `status` event and the stream ends with
// one `result` event. A poll timeout ends with a poll_timeout error, never
// with a status.
func (h *Handler) StreamTerminalCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID, ok := h.checkoutIDParam(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, r, http.StatusInternalServerError, api.ErrorCodeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, data api.CheckoutEvent) {
		payload, err := json.Marshal(data)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to encode checkout event", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			h.logger.DebugContext(r.Context(), "checkout stream closed", "checkout_id", checkoutID, "error", err)
			return
		}
		flusher.Flush()
	}

	status, err := h.checkouts.PollTerminalCheckoutStatus(r.Context(), checkoutID, func(status string) {
		send(eventStatus, api.CheckoutEvent{CheckoutID: checkoutID, Status: status})
	})

	result := api.CheckoutEvent{CheckoutID: checkoutID, Status: status}
	if err != nil {
		result.Error = streamError(err)
		h.logger.InfoContext(r.Context(), "checkout stream ended without completion",
			"checkout_id", checkoutID,
			"status", status,
			"error", err,
		)
	}
	send(eventResult, result)
}

func streamError(err error) *api.ErrorResponse {
	svcErr := extractServiceError(err)
	if svcErr == nil || svcErr.Code == service.ErrCodeInternalError {
		return &api.ErrorResponse{Error: api.ErrorCodeInternalError, Message: "internal error"}
	}
	return &api.ErrorResponse{Error: mapServiceErrorToCode(svcErr.Code), Message: svcErr.Message}
}
