// Package webhook authenticates inbound gateway notifications and routes
// them to typed handlers.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the base64 HMAC-SHA256 of notification URL + body.
const SignatureHeader = "x-square-hmacsha256-signature"

// Verifier checks webhook signatures against the shared signature key.
type Verifier struct {
	key []byte
}

// NewVerifier creates a verifier. An empty key rejects every webhook.
func NewVerifier(signatureKey string) *Verifier {
	return &Verifier{key: []byte(signatureKey)}
}

// Sign returns the signature the sender would attach for body posted to url.
func (v *Verifier) Sign(body []byte, url string) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(url))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature authenticates body for url. The
// comparison is constant time. It never panics.
func (v *Verifier) Verify(body []byte, signature, url string) bool {
	if len(v.key) == 0 || signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(v.Sign(body, url)))
}
