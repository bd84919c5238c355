package square

// Checkout statuses reported by the terminal API
const (
	CheckoutPending         = "PENDING"
	CheckoutInProgress      = "IN_PROGRESS"
	CheckoutCancelRequested = "CANCEL_REQUESTED"
	CheckoutCanceled        = "CANCELED"
	CheckoutCompleted       = "COMPLETED"
	CheckoutFailed          = "FAILED"
)

// Payment statuses reported by the payments API
const (
	PaymentApproved  = "APPROVED"
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentCanceled  = "CANCELED"
	PaymentFailed    = "FAILED"
)

// Money is an amount in minor units
type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// Payment is the subset of the gateway payment object the shop reads.
type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id,omitempty"`
	LocationID  string `json:"location_id,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	AmountMoney Money  `json:"amount_money"`
}

// DeviceOptions controls the card-present flow on the terminal
type DeviceOptions struct {
	DeviceID          string `json:"device_id"`
	SkipReceiptScreen bool   `json:"skip_receipt_screen"`
	CollectSignature  bool   `json:"collect_signature"`
}

// Checkout is a terminal checkout dispatched to a physical device.
type Checkout struct {
	ID            string        `json:"id,omitempty"`
	Status        string        `json:"status,omitempty"`
	ReferenceID   string        `json:"reference_id,omitempty"`
	Note          string        `json:"note,omitempty"`
	CancelReason  string        `json:"cancel_reason,omitempty"`
	CreatedAt     string        `json:"created_at,omitempty"`
	UpdatedAt     string        `json:"updated_at,omitempty"`
	PaymentIDs    []string      `json:"payment_ids,omitempty"`
	AmountMoney   Money         `json:"amount_money"`
	DeviceOptions DeviceOptions `json:"device_options"`
}

// Refund is a refund of a captured payment
type Refund struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PaymentID   string `json:"payment_id"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	AmountMoney Money  `json:"amount_money"`
}

// Device is a paired terminal
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DepositRequest charges the booking deposit from a tokenized card.
// IdempotencyKey is derived from ReferenceID when empty.
type DepositRequest struct {
	SourceID       string `validate:"required"`
	Currency       string `validate:"required,len=3"`
	LocationID     string
	ReferenceID    string `validate:"required"`
	Note           string
	IdempotencyKey string
	Amount         int64
}

// CheckoutRequest sends the remaining balance to a terminal.
type CheckoutRequest struct {
	DeviceID       string `validate:"required"`
	Currency       string `validate:"required,len=3"`
	ReferenceID    string `validate:"required"`
	Note           string
	IdempotencyKey string
	Amount         int64
}

// RefundRequest refunds all or part of a captured payment. Reason is mandatory for audit.
type RefundRequest struct {
	PaymentID      string `validate:"required"`
	Currency       string `validate:"required,len=3"`
	Reason         string `validate:"required"`
	IdempotencyKey string
	Amount         int64
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type errorResponse struct {
	Errors []apiError `json:"errors"`
}

type createPaymentBody struct {
	SourceID       string `json:"source_id"`
	IdempotencyKey string `json:"idempotency_key"`
	LocationID     string `json:"location_id"`
	ReferenceID    string `json:"reference_id"`
	Note           string `json:"note,omitempty"`
	AmountMoney    Money  `json:"amount_money"`
	Autocomplete   bool   `json:"autocomplete"`
}

type createCheckoutBody struct {
	IdempotencyKey string   `json:"idempotency_key"`
	Checkout       Checkout `json:"checkout"`
}

type createRefundBody struct {
	IdempotencyKey string `json:"idempotency_key"`
	PaymentID      string `json:"payment_id"`
	Reason         string `json:"reason"`
	AmountMoney    Money  `json:"amount_money"`
}

type paymentResponse struct {
	Payment Payment `json:"payment"`
}

type listPaymentsResponse struct {
	Cursor   string    `json:"cursor"`
	Payments []Payment `json:"payments"`
}

type checkoutResponse struct {
	Checkout Checkout `json:"checkout"`
}

type refundResponse struct {
	Refund Refund `json:"refund"`
}

type listDevicesResponse struct {
	Cursor  string `json:"cursor"`
	Devices []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"attributes"`
	} `json:"devices"`
}
