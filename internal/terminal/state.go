package terminal

import "github.com/shampooches/payments/internal/square"

// State is the poller's view of a checkout
type State string

// Checkout states
const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateCanceled   State = "canceled"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
)

// StateOf maps a raw gateway checkout status. Unknown statuses are treated as
// still in progress so polling continues.
func StateOf(status string) State {
	switch status {
	case square.CheckoutPending:
		return StatePending
	case square.CheckoutCompleted:
		return StateCompleted
	case square.CheckoutCanceled:
		return StateCanceled
	case square.CheckoutFailed:
		return StateFailed
	default:
		return StateInProgress
	}
}

// IsTerminal reports whether no further status change is expected.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCanceled, StateFailed, StateTimedOut:
		return true
	}
	return false
}
