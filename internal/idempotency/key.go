// Package idempotency derives the keys sent with every gateway mutation so a
// transport-level retry of the same logical request is deduplicated upstream.
package idempotency

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Purposes of gateway mutations
const (
	PurposeDeposit = "deposit"
	PurposeFinal   = "final"
	PurposeRefund  = "refund"
	PurposeCancel  = "cancel"
)

// MaxKeyLength is the longest idempotency key the gateway accepts.
const MaxKeyLength = 45

var keyNamespace = uuid.MustParse("6f1c5a4e-3b5d-4f6a-9c1e-2d7b8a9e0f11")

// MakeKey joins the inputs into a key. Keys that would exceed MaxKeyLength are
// replaced by a name-based UUID of the same text, which keeps them deterministic.
func MakeKey(referenceID, purpose string, attemptEpochMillis int64) string {
	raw := referenceID + "-" + purpose + "-" + strconv.FormatInt(attemptEpochMillis, 10)
	if len(raw) <= MaxKeyLength {
		return raw
	}
	return uuid.NewSHA1(keyNamespace, []byte(raw)).String()
}

// Attempt pins the timestamp of the first try of one logical operation.
// Retries reuse the Attempt and therefore the key.
type Attempt struct {
	StartedAt   time.Time
	ReferenceID string
	Purpose     string
}

// NewAttempt starts a logical operation at now.
func NewAttempt(referenceID, purpose string, now time.Time) Attempt {
	return Attempt{ReferenceID: referenceID, Purpose: purpose, StartedAt: now}
}

// Key returns the idempotency key for the attempt.
func (a Attempt) Key() string {
	return MakeKey(a.ReferenceID, a.Purpose, a.StartedAt.UnixMilli())
}
