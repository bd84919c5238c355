package webhook

import "encoding/json"

// Event types the router understands
const (
	TypePaymentCreated          = "payment.created"
	TypePaymentUpdated          = "payment.updated"
	TypeTerminalCheckoutUpdated = "terminal.checkout.updated"
	TypeRefundCreated           = "refund.created"
)

// Event is the notification envelope.
type Event struct {
	MerchantID string    `json:"merchant_id"`
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	CreatedAt  string    `json:"created_at"`
	Data       EventData `json:"data"`
}

// EventData identifies the object the event is about
type EventData struct {
	Object map[string]any `json:"object"`
	Type   string         `json:"type"`
	ID     string         `json:"id"`
}

// Parse decodes a raw body. It returns nil when the body is not a JSON
// object with a type.
func Parse(raw []byte) *Event {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil
	}
	if e.Type == "" {
		return nil
	}
	return &e
}

// entity returns the object fields. The gateway nests them under the object
// type (data.object.payment); a flat data.object is accepted as well.
func (e *Event) entity() map[string]any {
	if e.Data.Object == nil {
		return nil
	}
	if e.Data.Type != "" {
		if nested, ok := e.Data.Object[e.Data.Type].(map[string]any); ok {
			return nested
		}
	}
	return e.Data.Object
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
