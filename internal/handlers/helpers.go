package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/shampooches/payments/internal/api"
	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/service"
	"github.com/shampooches/payments/internal/square"
)

const maxBodyBytes = 1 << 20

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code api.ErrorCode, message string) {
	h.writeJSON(w, r, status, api.ErrorResponse{Error: code, Message: message})
}

// handleServiceError maps service errors to HTTP responses. Anything that is
// not a ServiceError is logged and reported as a 500.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.ErrorContext(r.Context(), "unexpected error", "op", op, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, api.ErrorCodeInternalError, "internal error")
		return
	}

	status := statusForCode(svcErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "op", op, "code", svcErr.Code, "error", err)
	} else {
		h.logger.InfoContext(r.Context(), "request rejected", "op", op, "code", svcErr.Code, "error", err)
	}

	message := svcErr.Message
	if svcErr.Code == service.ErrCodeInternalError {
		message = "internal error"
	}
	h.writeError(w, r, status, mapServiceErrorToCode(svcErr.Code), message)
}

func mapServiceErrorToCode(code string) api.ErrorCode {
	switch code {
	case service.ErrCodeInvalidAmount:
		return api.ErrorCodeInvalidAmount
	case service.ErrCodeInvalidRequest:
		return api.ErrorCodeInvalidRequest
	case service.ErrCodeAmountMismatch:
		return api.ErrorCodeAmountMismatch
	case service.ErrCodeBookingNotFound:
		return api.ErrorCodeBookingNotFound
	case service.ErrCodeCheckoutNotFound:
		return api.ErrorCodeCheckoutNotFound
	case service.ErrCodePaymentNotFound:
		return api.ErrorCodePaymentNotFound
	case service.ErrCodeAppointmentClosed:
		return api.ErrorCodeAppointmentClosed
	case service.ErrCodeDepositAlreadyPaid:
		return api.ErrorCodeDepositAlreadyPaid
	case service.ErrCodeDepositNotCollected:
		return api.ErrorCodeDepositNotCollected
	case service.ErrCodeAlreadyRefunded:
		return api.ErrorCodeAlreadyRefunded
	case service.ErrCodeRescheduleLimit:
		return api.ErrorCodeRescheduleLimit
	case service.ErrCodeFinalPaymentCompleted:
		return api.ErrorCodeFinalPaymentCompleted
	case service.ErrCodeCheckoutInProgress:
		return api.ErrorCodeCheckoutInProgress
	case service.ErrCodeCheckoutTerminated:
		return api.ErrorCodeCheckoutTerminated
	case service.ErrCodePollTimeout:
		return api.ErrorCodePollTimeout
	case service.ErrCodePollCanceled:
		return api.ErrorCodePollCanceled
	case service.ErrCodeGatewayRejected:
		return api.ErrorCodePaymentRejected
	case service.ErrCodeGatewayUnavailable:
		return api.ErrorCodeGatewayUnavailable
	case service.ErrCodeConflict:
		return api.ErrorCodeConflict
	default:
		return api.ErrorCodeInternalError
	}
}

func statusForCode(code string) int {
	switch code {
	case service.ErrCodeInvalidAmount, service.ErrCodeInvalidRequest, service.ErrCodeAmountMismatch:
		return http.StatusBadRequest
	case service.ErrCodeGatewayRejected:
		return http.StatusPaymentRequired
	case service.ErrCodeBookingNotFound, service.ErrCodeCheckoutNotFound, service.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case service.ErrCodeAppointmentClosed,
		service.ErrCodeDepositAlreadyPaid,
		service.ErrCodeDepositNotCollected,
		service.ErrCodeAlreadyRefunded,
		service.ErrCodeRescheduleLimit,
		service.ErrCodeFinalPaymentCompleted,
		service.ErrCodeCheckoutInProgress,
		service.ErrCodeCheckoutTerminated,
		service.ErrCodeConflict:
		return http.StatusConflict
	case service.ErrCodeGatewayUnavailable:
		return http.StatusBadGateway
	case service.ErrCodePollTimeout:
		return http.StatusGatewayTimeout
	case service.ErrCodePollCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func extractServiceError(err error) *service.ServiceError {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// decodeBody reads a JSON request body into dst
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "malformed request body")
		return false
	}
	return true
}

func (h *Handler) bookingIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var bookingID uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "bookingId", r.PathValue("bookingId"), &bookingID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest,
			fmt.Sprintf("invalid format for parameter bookingId: %s", err))
		return uuid.Nil, false
	}
	return bookingID, true
}

func (h *Handler) checkoutIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var checkoutID string
	err := runtime.BindStyledParameterWithOptions("simple", "checkoutId", r.PathValue("checkoutId"), &checkoutID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || checkoutID == "" {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "invalid format for parameter checkoutId")
		return "", false
	}
	return checkoutID, true
}

// timeRange binds the optional begin_time and end_time query parameters.
func (h *Handler) timeRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var begin, end *time.Time
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "begin_time", query, &begin); err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "invalid format for parameter begin_time")
		return time.Time{}, time.Time{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "end_time", query, &end); err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "invalid format for parameter end_time")
		return time.Time{}, time.Time{}, false
	}

	var b, e time.Time
	if begin != nil {
		b = *begin
	}
	if end != nil {
		e = *end
	}
	return b, e, true
}

func toAppointment(a *models.Appointment) api.Appointment {
	return api.Appointment{
		BookingID:               a.ID,
		Status:                  string(a.Status),
		AppointmentDate:         a.AppointmentDate,
		OriginalAppointmentDate: a.OriginalAppointmentDate,
		DepositAmount:           a.DepositAmount,
		DepositStatus:           string(a.DepositStatus),
		DepositPaymentID:        a.DepositPaymentID,
		TotalServiceCost:        a.TotalServiceCost,
		RemainingBalance:        a.RemainingBalance,
		FinalPaymentID:          a.FinalPaymentID,
		CheckoutID:              a.CheckoutID,
		CheckoutStatus:          a.CheckoutStatus,
		RescheduleCount:         a.RescheduleCount,
	}
}

func toPayment(p *models.Payment) api.Payment {
	return api.Payment{
		PaymentID:   p.ExternalID,
		BookingID:   p.BookingID,
		Type:        string(p.Type),
		Status:      string(p.Status),
		Amount:      p.AmountCents,
		Currency:    p.Currency,
		Method:      p.Method,
		Reason:      p.Reason,
		ProcessedBy: p.ProcessedBy,
		CreatedAt:   p.CreatedAt,
	}
}

func toPaymentInfo(info *service.PaymentInfo) api.PaymentInfo {
	out := api.PaymentInfo{
		Appointment: toAppointment(info.Appointment),
		Payments:    make([]api.Payment, 0, len(info.Payments)),
		Anomalies:   make([]api.Anomaly, 0, len(info.Anomalies)),
	}
	for _, p := range info.Payments {
		out.Payments = append(out.Payments, toPayment(p))
	}
	for _, a := range info.Anomalies {
		out.Anomalies = append(out.Anomalies, api.Anomaly{
			ExternalID:     a.ExternalID,
			StoredStatus:   string(a.StoredStatus),
			IncomingStatus: a.IncomingStatus,
			Source:         a.Source,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}

func toGatewayPayment(p square.Payment) api.GatewayPayment {
	return api.GatewayPayment{
		ID:          p.ID,
		Status:      p.Status,
		Amount:      p.AmountMoney.Amount,
		Currency:    p.AmountMoney.Currency,
		ReferenceID: p.ReferenceID,
		Note:        p.Note,
		ReceiptURL:  p.ReceiptURL,
		CreatedAt:   p.CreatedAt,
	}
}
