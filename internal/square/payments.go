package square

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shampooches/payments/internal/idempotency"
	"github.com/shampooches/payments/internal/money"
)

// maxListPages bounds cursor paging in ListPayments.
const maxListPages = 20

// CreateDeposit charges the fixed booking deposit from a card token.
// The payment autocompletes, so a COMPLETED result means funds are captured.
func (c *Client) CreateDeposit(ctx context.Context, req DepositRequest) (*Payment, error) {
	if req.Currency == "" {
		req.Currency = money.Currency
	}
	if req.Amount == 0 {
		req.Amount = money.DepositAmount()
	}
	if req.Amount != money.DepositAmount() {
		return nil, fmt.Errorf("%w: deposit must be %d, got %d", ErrInvalidAmount, money.DepositAmount(), req.Amount)
	}
	if err := c.check(req); err != nil {
		return nil, err
	}
	if req.LocationID == "" {
		req.LocationID = c.locationID
	}
	if req.Note == "" {
		req.Note = money.DepositNote
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = idempotency.NewAttempt(req.ReferenceID, idempotency.PurposeDeposit, c.now()).Key()
	}

	body := createPaymentBody{
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		LocationID:     req.LocationID,
		ReferenceID:    req.ReferenceID,
		Note:           req.Note,
		AmountMoney:    Money{Amount: req.Amount, Currency: req.Currency},
		Autocomplete:   true,
	}

	var out paymentResponse
	if err := c.do(ctx, http.MethodPost, "/v2/payments", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// GetPayment fetches a payment by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrInvalidRequest)
	}

	var out paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v2/payments/"+url.PathEscape(paymentID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// ListPayments returns payments at locationID, newest first. Zero times leave
// the range open on that side. An empty locationID uses the configured one.
func (c *Client) ListPayments(ctx context.Context, locationID string, begin, end time.Time) ([]Payment, error) {
	if locationID == "" {
		locationID = c.locationID
	}

	query := url.Values{}
	query.Set("location_id", locationID)
	query.Set("sort_order", "DESC")
	if !begin.IsZero() {
		query.Set("begin_time", begin.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		query.Set("end_time", end.UTC().Format(time.RFC3339))
	}

	var payments []Payment
	for range maxListPages {
		var page listPaymentsResponse
		if err := c.do(ctx, http.MethodGet, "/v2/payments", query, nil, &page); err != nil {
			return nil, err
		}
		payments = append(payments, page.Payments...)
		if page.Cursor == "" {
			break
		}
		query.Set("cursor", page.Cursor)
	}
	return payments, nil
}
