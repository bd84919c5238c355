package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/api"
	"github.com/shampooches/payments/internal/webhook"
)

const checkoutEventBody = `{
	"merchant_id": "M1",
	"type": "terminal.checkout.updated",
	"event_id": "evt_1",
	"created_at": "2026-11-02T15:40:00Z",
	"data": {"type": "checkout", "id": "chk_1", "object": {"checkout": {"id": "chk_1", "status": "COMPLETED"}}}
}`

func webhookRequest(body string) *http.Request {
	req := jsonRequest(http.MethodPost, "/webhooks/square", body)
	req.Header.Set(webhook.SignatureHeader, "c2lnbmF0dXJl")
	return req
}

func isCheckoutEvent(e *webhook.Event) bool {
	return e.EventID == "evt_1" && e.Type == webhook.TypeTerminalCheckoutUpdated
}

func TestReceiveSquareWebhook(t *testing.T) {
	t.Run("bad signature is rejected before parsing", func(t *testing.T) {
		h, _ := newTestHandler(t)
		h.verifier = stubVerifier{valid: false}

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(`not even json`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, api.ErrorCodeInvalidSignature, decodeError(t, rec).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		h, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(`{"event_id":`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("processed", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.webhooks.On("Process", mock.Anything, mock.MatchedBy(isCheckoutEvent)).Return(false, nil)

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(checkoutEventBody))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate is acknowledged", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.webhooks.On("Process", mock.Anything, mock.MatchedBy(isCheckoutEvent)).Return(true, nil)

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(checkoutEventBody))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("redeliver", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.webhooks.On("Process", mock.Anything, mock.Anything).
			Return(false, fmt.Errorf("booking busy: %w", webhook.ErrRedeliver))

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(checkoutEventBody))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("dedupe store failure is redelivered", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.webhooks.On("Process", mock.Anything, mock.Anything).
			Return(false, fmt.Errorf("%w: %w", webhook.ErrRedeliver, errors.New("dedupe store down")))

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(checkoutEventBody))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("other failures are acknowledged", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.webhooks.On("Process", mock.Anything, mock.Anything).Return(false, errors.New("malformed checkout object"))

		rec := httptest.NewRecorder()
		h.ReceiveSquareWebhook(rec, webhookRequest(checkoutEventBody))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
