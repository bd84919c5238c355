package square

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shampooches/payments/internal/idempotency"
	"github.com/shampooches/payments/internal/money"
)

// CreateRefund refunds a captured payment. Callers check the amount against
// the original capture; the gateway enforces it as well.
func (c *Client) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if !money.IsValidMinorAmount(req.Amount) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, req.Amount)
	}
	if req.Currency == "" {
		req.Currency = money.Currency
	}
	if err := c.check(req); err != nil {
		return nil, err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = idempotency.NewAttempt(req.PaymentID, idempotency.PurposeRefund, c.now()).Key()
	}

	body := createRefundBody{
		IdempotencyKey: req.IdempotencyKey,
		PaymentID:      req.PaymentID,
		Reason:         req.Reason,
		AmountMoney:    Money{Amount: req.Amount, Currency: req.Currency},
	}

	var out refundResponse
	if err := c.do(ctx, http.MethodPost, "/v2/refunds", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Refund, nil
}
