package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockHandlers struct {
	mock.Mock
}

func newMockHandlers(t *testing.T) *mockHandlers {
	m := &mockHandlers{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockHandlers) OnPaymentCreated(ctx context.Context, paymentID, referenceID string) error {
	return m.Called(ctx, paymentID, referenceID).Error(0)
}

func (m *mockHandlers) OnPaymentUpdated(ctx context.Context, paymentID, status string) error {
	return m.Called(ctx, paymentID, status).Error(0)
}

func (m *mockHandlers) OnTerminalCheckoutUpdated(ctx context.Context, checkoutID, status, referenceID string) error {
	return m.Called(ctx, checkoutID, status, referenceID).Error(0)
}

func (m *mockHandlers) OnRefundCreated(ctx context.Context, refundID, paymentID string, amount int64) error {
	return m.Called(ctx, refundID, paymentID, amount).Error(0)
}

func assertOnlyCalled(t *testing.T, m *mockHandlers, method string) {
	t.Helper()
	for _, name := range []string{"OnPaymentCreated", "OnPaymentUpdated", "OnTerminalCheckoutUpdated", "OnRefundCreated"} {
		if name != method {
			m.AssertNotCalled(t, name)
		}
	}
}

func TestParse(t *testing.T) {
	e := Parse([]byte(`{
		"merchant_id": "M1",
		"type": "payment.created",
		"event_id": "ev_1",
		"created_at": "2024-03-01T10:00:00Z",
		"data": {"type": "payment", "id": "pay_1", "object": {"payment": {"id": "pay_1"}}}
	}`))

	require.NotNil(t, e)
	assert.Equal(t, "M1", e.MerchantID)
	assert.Equal(t, TypePaymentCreated, e.Type)
	assert.Equal(t, "ev_1", e.EventID)
	assert.Equal(t, "pay_1", e.Data.ID)
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{``, `not json`, `[]`, `{"event_id":"ev_1"}`, `{"type":"payment.created"`} {
		assert.Nil(t, Parse([]byte(raw)), raw)
	}
}

func TestDispatch_PaymentCreated(t *testing.T) {
	ctx := context.Background()
	handlers := newMockHandlers(t)
	handlers.On("OnPaymentCreated", ctx, "pay_1", "bk_1").Return(nil).Once()

	e := Parse([]byte(`{"type":"payment.created","event_id":"ev_1","data":{"type":"payment","object":{"id":"pay_1","reference_id":"bk_1"}}}`))
	require.NotNil(t, e)

	err := NewRouter(handlers, testLogger()).Dispatch(ctx, e)

	require.NoError(t, err)
	assertOnlyCalled(t, handlers, "OnPaymentCreated")
}

func TestDispatch_ExtractsFields(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		setup  func(m *mockHandlers)
		name   string
		method string
		body   string
	}{
		{
			name:   "payment updated nested",
			method: "OnPaymentUpdated",
			body:   `{"type":"payment.updated","data":{"type":"payment","object":{"payment":{"id":"pay_1","status":"COMPLETED"}}}}`,
			setup: func(m *mockHandlers) {
				m.On("OnPaymentUpdated", ctx, "pay_1", "COMPLETED").Return(nil).Once()
			},
		},
		{
			name:   "checkout updated",
			method: "OnTerminalCheckoutUpdated",
			body:   `{"type":"terminal.checkout.updated","data":{"type":"checkout","object":{"checkout":{"id":"chk_1","status":"COMPLETED","reference_id":"bk_1"}}}}`,
			setup: func(m *mockHandlers) {
				m.On("OnTerminalCheckoutUpdated", ctx, "chk_1", "COMPLETED", "bk_1").Return(nil).Once()
			},
		},
		{
			name:   "checkout updated without reference",
			method: "OnTerminalCheckoutUpdated",
			body:   `{"type":"terminal.checkout.updated","data":{"type":"checkout","object":{"id":"chk_1","status":"CANCELED"}}}`,
			setup: func(m *mockHandlers) {
				m.On("OnTerminalCheckoutUpdated", ctx, "chk_1", "CANCELED", "").Return(nil).Once()
			},
		},
		{
			name:   "refund created",
			method: "OnRefundCreated",
			body:   `{"type":"refund.created","data":{"type":"refund","object":{"refund":{"id":"ref_1","payment_id":"pay_1","amount_money":{"amount":2500,"currency":"USD"}}}}}`,
			setup: func(m *mockHandlers) {
				m.On("OnRefundCreated", ctx, "ref_1", "pay_1", int64(2500)).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := newMockHandlers(t)
			tt.setup(handlers)

			e := Parse([]byte(tt.body))
			require.NotNil(t, e)
			require.NoError(t, NewRouter(handlers, testLogger()).Dispatch(ctx, e))
			assertOnlyCalled(t, handlers, tt.method)
		})
	}
}

func TestDispatch_DropsMissingFields(t *testing.T) {
	bodies := []string{
		`{"type":"payment.created","data":{"object":{"id":"pay_1"}}}`,
		`{"type":"payment.updated","data":{"object":{"status":"COMPLETED"}}}`,
		`{"type":"terminal.checkout.updated","data":{"object":{"id":"chk_1"}}}`,
		`{"type":"refund.created","data":{"object":{"id":"ref_1","payment_id":"pay_1"}}}`,
		`{"type":"refund.created","data":{"object":{"id":"ref_1","payment_id":"pay_1","amount_money":{"amount":0}}}}`,
		`{"type":"refund.created","data":{"object":{"id":"ref_1","payment_id":"pay_1","amount_money":{"amount":12.5}}}}`,
		`{"type":"payment.created","data":{}}`,
	}

	for _, body := range bodies {
		handlers := newMockHandlers(t)
		e := Parse([]byte(body))
		require.NotNil(t, e, body)

		assert.NoError(t, NewRouter(handlers, testLogger()).Dispatch(context.Background(), e), body)
		assertOnlyCalled(t, handlers, "")
	}
}

func TestDispatch_UnknownTypeIsIgnored(t *testing.T) {
	handlers := newMockHandlers(t)
	e := Parse([]byte(`{"type":"invoice.published","data":{"object":{"id":"inv_1"}}}`))
	require.NotNil(t, e)

	assert.NoError(t, NewRouter(handlers, testLogger()).Dispatch(context.Background(), e))
	assertOnlyCalled(t, handlers, "")
}

func TestDispatch_HandlerErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	handlers := newMockHandlers(t)
	handlers.On("OnPaymentUpdated", ctx, "pay_1", "FAILED").Return(errors.New("db down")).Once()

	e := Parse([]byte(`{"type":"payment.updated","data":{"object":{"id":"pay_1","status":"FAILED"}}}`))

	assert.NoError(t, NewRouter(handlers, testLogger()).Dispatch(ctx, e))
}

func TestDispatch_RedeliverPropagates(t *testing.T) {
	ctx := context.Background()
	handlers := newMockHandlers(t)
	handlers.On("OnPaymentUpdated", ctx, "pay_1", "COMPLETED").
		Return(fmt.Errorf("booking locked: %w", ErrRedeliver)).Once()

	e := Parse([]byte(`{"type":"payment.updated","data":{"object":{"id":"pay_1","status":"COMPLETED"}}}`))

	err := NewRouter(handlers, testLogger()).Dispatch(ctx, e)
	assert.ErrorIs(t, err, ErrRedeliver)
}

type panickingHandlers struct {
	Handlers
}

func (panickingHandlers) OnPaymentCreated(context.Context, string, string) error {
	panic("nil map")
}

func TestDispatch_RecoversPanic(t *testing.T) {
	e := Parse([]byte(`{"type":"payment.created","data":{"object":{"id":"pay_1","reference_id":"bk_1"}}}`))
	router := NewRouter(panickingHandlers{}, testLogger())

	assert.NotPanics(t, func() {
		assert.NoError(t, router.Dispatch(context.Background(), e))
	})
}

func TestDispatch_NilEvent(t *testing.T) {
	assert.NoError(t, NewRouter(newMockHandlers(t), testLogger()).Dispatch(context.Background(), nil))
}
