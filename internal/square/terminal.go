package square

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shampooches/payments/internal/idempotency"
	"github.com/shampooches/payments/internal/money"
)

// DefaultCheckoutNote is shown on the terminal when the caller gives none.
const DefaultCheckoutNote = "Final payment (deposit already applied)"

// CreateTerminalCheckout dispatches the remaining balance to a terminal.
// Amount is checked before any request is sent.
func (c *Client) CreateTerminalCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if !money.IsValidMinorAmount(req.Amount) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, req.Amount)
	}
	if req.Currency == "" {
		req.Currency = money.Currency
	}
	if err := c.check(req); err != nil {
		return nil, err
	}
	if req.Note == "" {
		req.Note = DefaultCheckoutNote
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = idempotency.NewAttempt(req.ReferenceID, idempotency.PurposeFinal, c.now()).Key()
	}

	body := createCheckoutBody{
		IdempotencyKey: req.IdempotencyKey,
		Checkout: Checkout{
			AmountMoney: Money{Amount: req.Amount, Currency: req.Currency},
			ReferenceID: req.ReferenceID,
			Note:        req.Note,
			DeviceOptions: DeviceOptions{
				DeviceID:          req.DeviceID,
				SkipReceiptScreen: false,
				CollectSignature:  true,
			},
		},
	}

	var out checkoutResponse
	if err := c.do(ctx, http.MethodPost, "/v2/terminals/checkouts", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Checkout, nil
}

// GetCheckout fetches a terminal checkout.
func (c *Client) GetCheckout(ctx context.Context, checkoutID string) (*Checkout, error) {
	if checkoutID == "" {
		return nil, fmt.Errorf("%w: checkout id is required", ErrInvalidRequest)
	}

	var out checkoutResponse
	path := "/v2/terminals/checkouts/" + url.PathEscape(checkoutID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Checkout, nil
}

// GetCheckoutStatus returns only the checkout status.
func (c *Client) GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error) {
	co, err := c.GetCheckout(ctx, checkoutID)
	if err != nil {
		return "", err
	}
	return co.Status, nil
}

// CancelCheckout asks the terminal to abandon a checkout. Cancelling a
// checkout that has already reached a terminal state is not an error.
func (c *Client) CancelCheckout(ctx context.Context, checkoutID string) (*Checkout, error) {
	if checkoutID == "" {
		return nil, fmt.Errorf("%w: checkout id is required", ErrInvalidRequest)
	}

	var out checkoutResponse
	path := "/v2/terminals/checkouts/" + url.PathEscape(checkoutID) + "/cancel"
	err := c.do(ctx, http.MethodPost, path, nil, nil, &out)
	if err == nil {
		return &out.Checkout, nil
	}

	var rej *RejectedError
	if !errors.As(err, &rej) {
		return nil, err
	}

	co, getErr := c.GetCheckout(ctx, checkoutID)
	if getErr != nil {
		return nil, err
	}
	switch co.Status {
	case CheckoutCanceled, CheckoutCompleted, CheckoutFailed:
		return co, nil
	}
	return nil, err
}

// ListDevices returns the terminals paired to locationID. An empty
// locationID uses the configured one.
func (c *Client) ListDevices(ctx context.Context, locationID string) ([]Device, error) {
	if locationID == "" {
		locationID = c.locationID
	}
	query := url.Values{}
	query.Set("location_id", locationID)

	var devices []Device
	for range maxListPages {
		var page listDevicesResponse
		if err := c.do(ctx, http.MethodGet, "/v2/devices", query, nil, &page); err != nil {
			return nil, err
		}
		for _, d := range page.Devices {
			devices = append(devices, Device{ID: d.ID, Name: d.Attributes.Name})
		}
		if page.Cursor == "" {
			break
		}
		query.Set("cursor", page.Cursor)
	}
	return devices, nil
}
