// Package money holds the booking payment policy: the fixed deposit and the
// balance left to collect at the terminal. All amounts are integer minor units.
package money

import (
	"fmt"
	"math"
)

const (
	// Deposit is the non-refundable booking deposit ($25.00).
	Deposit int64 = 2500

	// Currency is the only currency the shop charges in.
	Currency = "USD"

	// DepositNote is attached to every deposit charge.
	DepositNote = "Grooming appointment deposit - non-refundable"

	// MaxReschedules is how many times a booking may be moved before the deposit is at risk.
	MaxReschedules = 1
)

// DepositAmount returns the fixed deposit in minor currency units.
func DepositAmount() int64 {
	return Deposit
}

// RemainingBalance returns what is still owed after the deposit. Never negative.
func RemainingBalance(totalServiceCost int64) int64 {
	return max(0, totalServiceCost-DepositAmount())
}

// IsValidPaymentAmount reports whether amount is a strictly positive whole
// number of minor units. Amounts decoded from JSON arrive as float64.
func IsValidPaymentAmount(amount float64) bool {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false
	}
	if amount <= 0 || amount != math.Trunc(amount) {
		return false
	}
	return amount < math.MaxInt64
}

// IsValidMinorAmount is IsValidPaymentAmount for amounts already typed as minor units.
func IsValidMinorAmount(amount int64) bool {
	return amount > 0
}

// ValidateAmount checks if amount is valid (positive)
func ValidateAmount(amount int64) error {
	if !IsValidMinorAmount(amount) {
		return fmt.Errorf("invalid amount %d: must be greater than 0", amount)
	}
	return nil
}
