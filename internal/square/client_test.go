package square

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shampooches/payments/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.SquareConfig{
		Environment:    config.EnvironmentSandbox,
		LocationID:     "L1",
		AccessToken:    "EAAA-test",
		APIVersion:     "2024-10-23",
		RequestTimeout: 2 * time.Second,
		RateLimitRPS:   1000,
	}
	clock := func() time.Time { return time.UnixMilli(1700000000000) }
	return New(cfg, testLogger(), WithBaseURL(srv.URL), WithClock(clock)), &calls
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestCreateDeposit_Success(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/payments", r.URL.Path)
		assert.Equal(t, "Bearer EAAA-test", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-10-23", r.Header.Get("Square-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"payment": map[string]any{
				"id":           "pay_1",
				"status":       "COMPLETED",
				"reference_id": "bk_1",
				"amount_money": map[string]any{"amount": 2500, "currency": "USD"},
			},
		})
	})

	p, err := client.CreateDeposit(context.Background(), DepositRequest{SourceID: "cnon:card", ReferenceID: "bk_1"})
	require.NoError(t, err)

	assert.Equal(t, "pay_1", p.ID)
	assert.Equal(t, PaymentCompleted, p.Status)
	assert.Equal(t, int64(2500), p.AmountMoney.Amount)

	assert.Equal(t, "bk_1-deposit-1700000000000", got["idempotency_key"])
	assert.Equal(t, "L1", got["location_id"])
	assert.Equal(t, true, got["autocomplete"])
	assert.Equal(t, "Grooming appointment deposit - non-refundable", got["note"])
	assert.Equal(t, map[string]any{"amount": float64(2500), "currency": "USD"}, got["amount_money"])
}

func TestCreateDeposit_KeepsCallerKey(t *testing.T) {
	var got createPaymentBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{"payment": map[string]any{"id": "pay_1", "status": "COMPLETED"}})
	})

	_, err := client.CreateDeposit(context.Background(), DepositRequest{
		SourceID:       "cnon:card",
		ReferenceID:    "bk_1",
		IdempotencyKey: "bk_1-deposit-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "bk_1-deposit-42", got.IdempotencyKey)
}

func TestCreateDeposit_WrongAmountNeverSent(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CreateDeposit(context.Background(), DepositRequest{SourceID: "cnon:card", ReferenceID: "bk_1", Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Zero(t, calls.Load())
}

func TestCreateDeposit_MissingSource(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CreateDeposit(context.Background(), DepositRequest{ReferenceID: "bk_1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, calls.Load())
}

func TestCreateDeposit_Declined(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusPaymentRequired, map[string]any{
			"errors": []map[string]any{{
				"category": "PAYMENT_METHOD_ERROR",
				"code":     "CARD_DECLINED",
				"detail":   "Authorization error: 'CARD_DECLINED'",
			}},
		})
	})

	_, err := client.CreateDeposit(context.Background(), DepositRequest{SourceID: "cnon:card", ReferenceID: "bk_1"})
	require.Error(t, err)

	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "CARD_DECLINED", rej.Code)
	assert.Equal(t, "PAYMENT_METHOD_ERROR", rej.Category)
	assert.False(t, IsRetryable(err))
}

func TestDo_ClassifiesResponses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
		notFound  bool
	}{
		{name: "server error", status: http.StatusBadGateway, retryable: true},
		{name: "throttled", status: http.StatusTooManyRequests, retryable: true},
		{name: "not found", status: http.StatusNotFound, notFound: true},
		{name: "bad request", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.GetPayment(context.Background(), "pay_1")
			require.Error(t, err)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestDo_NetworkFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(config.SquareConfig{APIVersion: "2024-10-23", RateLimitRPS: 100}, testLogger(), WithBaseURL(url))
	_, err := client.GetPayment(context.Background(), "pay_1")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestCreateTerminalCheckout(t *testing.T) {
	var got createCheckoutBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/terminals/checkouts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"checkout": map[string]any{"id": "chk_1", "status": "PENDING", "reference_id": "bk_1"},
		})
	})

	co, err := client.CreateTerminalCheckout(context.Background(), CheckoutRequest{
		DeviceID:    "device:1",
		ReferenceID: "bk_1",
		Amount:      5500,
	})
	require.NoError(t, err)

	assert.Equal(t, "chk_1", co.ID)
	assert.Equal(t, CheckoutPending, co.Status)
	assert.Equal(t, "bk_1-final-1700000000000", got.IdempotencyKey)
	assert.Equal(t, int64(5500), got.Checkout.AmountMoney.Amount)
	assert.Equal(t, "USD", got.Checkout.AmountMoney.Currency)
	assert.Equal(t, DefaultCheckoutNote, got.Checkout.Note)
	assert.Equal(t, "device:1", got.Checkout.DeviceOptions.DeviceID)
	assert.True(t, got.Checkout.DeviceOptions.CollectSignature)
	assert.False(t, got.Checkout.DeviceOptions.SkipReceiptScreen)
}

func TestCreateTerminalCheckout_InvalidAmount(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, amount := range []int64{0, -5} {
		_, err := client.CreateTerminalCheckout(context.Background(), CheckoutRequest{
			DeviceID:    "device:1",
			ReferenceID: "bk_1",
			Amount:      amount,
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Zero(t, calls.Load())
}

func TestGetCheckoutStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/terminals/checkouts/chk_1", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"checkout": map[string]any{"id": "chk_1", "status": "IN_PROGRESS"}})
	})

	status, err := client.GetCheckoutStatus(context.Background(), "chk_1")
	require.NoError(t, err)
	assert.Equal(t, CheckoutInProgress, status)
}

func TestCancelCheckout_AlreadyCompleted(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			assert.Equal(t, "/v2/terminals/checkouts/chk_1/cancel", r.URL.Path)
			writeJSON(t, w, http.StatusBadRequest, map[string]any{
				"errors": []map[string]any{{"category": "INVALID_REQUEST_ERROR", "code": "BAD_REQUEST"}},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"checkout": map[string]any{"id": "chk_1", "status": "COMPLETED"}})
	})

	co, err := client.CancelCheckout(context.Background(), "chk_1")
	require.NoError(t, err)
	assert.Equal(t, CheckoutCompleted, co.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCancelCheckout_StillActiveReturnsRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(t, w, http.StatusBadRequest, map[string]any{
				"errors": []map[string]any{{"code": "BAD_REQUEST"}},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"checkout": map[string]any{"id": "chk_1", "status": "IN_PROGRESS"}})
	})

	_, err := client.CancelCheckout(context.Background(), "chk_1")
	var rej *RejectedError
	assert.ErrorAs(t, err, &rej)
}

func TestCreateRefund(t *testing.T) {
	var got createRefundBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/refunds", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"refund": map[string]any{"id": "ref_1", "status": "PENDING", "payment_id": "pay_1"},
		})
	})

	ref, err := client.CreateRefund(context.Background(), RefundRequest{
		PaymentID: "pay_1",
		Amount:    2500,
		Reason:    "Staff discretionary refund",
	})
	require.NoError(t, err)

	assert.Equal(t, "ref_1", ref.ID)
	assert.Equal(t, "pay_1-refund-1700000000000", got.IdempotencyKey)
	assert.Equal(t, "Staff discretionary refund", got.Reason)
}

func TestCreateRefund_RequiresReason(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CreateRefund(context.Background(), RefundRequest{PaymentID: "pay_1", Amount: 2500})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, calls.Load())
}

func TestListPayments_FollowsCursor(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "DESC", q.Get("sort_order"))
		assert.Equal(t, "L1", q.Get("location_id"))
		assert.Equal(t, "2024-03-01T00:00:00Z", q.Get("begin_time"))

		if q.Get("cursor") == "" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"payments": []map[string]any{{"id": "pay_2"}},
				"cursor":   "next",
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"payments": []map[string]any{{"id": "pay_1"}}})
	})

	begin := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	payments, err := client.ListPayments(context.Background(), "", begin, time.Time{})
	require.NoError(t, err)

	require.Len(t, payments, 2)
	assert.Equal(t, "pay_2", payments[0].ID)
	assert.Equal(t, "pay_1", payments[1].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListDevices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/devices", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"devices": []map[string]any{{
				"id":         "device:1",
				"attributes": map[string]any{"name": "Front desk", "type": "TERMINAL"},
			}},
		})
	})

	devices, err := client.ListDevices(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []Device{{ID: "device:1", Name: "Front desk"}}, devices)
}
