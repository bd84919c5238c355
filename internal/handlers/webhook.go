package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/shampooches/payments/internal/api"
	"github.com/shampooches/payments/internal/webhook"
)

// ReceiveSquareWebhook handles POST /webhooks/square. The signature is
// checked against the raw body before anything is parsed. Only events that
// must be redelivered get a 5xx; everything else is acknowledged so the
// gateway stops retrying.
func (h *Handler) ReceiveSquareWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "unreadable body")
		return
	}

	if !h.verifier.Verify(body, r.Header.Get(webhook.SignatureHeader), h.webhookURL) {
		h.logger.WarnContext(ctx, "webhook signature mismatch", "remote_addr", r.RemoteAddr)
		h.writeError(w, r, http.StatusUnauthorized, api.ErrorCodeInvalidSignature, "invalid signature")
		return
	}

	event := webhook.Parse(body)
	if event == nil {
		h.logger.WarnContext(ctx, "malformed webhook body")
		h.writeError(w, r, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "malformed event")
		return
	}

	duplicate, err := h.webhooks.Process(ctx, event)
	if err != nil {
		if errors.Is(err, webhook.ErrRedeliver) {
			h.logger.WarnContext(ctx, "webhook event will be redelivered",
				"event_id", event.EventID,
				"type", event.Type,
				"error", err,
			)
			h.writeError(w, r, http.StatusInternalServerError, api.ErrorCodeInternalError, "retry later")
			return
		}
		h.logger.ErrorContext(ctx, "webhook event dropped",
			"event_id", event.EventID,
			"type", event.Type,
			"error", err,
		)
	}

	if duplicate {
		h.logger.DebugContext(ctx, "duplicate webhook event", "event_id", event.EventID)
	}
	w.WriteHeader(http.StatusOK)
}
