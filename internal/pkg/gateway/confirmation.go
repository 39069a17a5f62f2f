package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Confirmation represents a "purchase completed" event delivered by the
// payment gateway to the confirm endpoint.
type Confirmation struct {
	PurchaseID       string `json:"purchase_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Amount           int64  `json:"amount"`
	Signature        string `json:"signature"`
}

// ParseConfirmation decodes a gateway confirmation payload
func ParseConfirmation(body io.Reader) (*Confirmation, error) {
	var c Confirmation
	if err := json.NewDecoder(body).Decode(&c); err != nil {
		return nil, fmt.Errorf("invalid confirmation payload: %w", err)
	}
	if c.PurchaseID == "" {
		return nil, fmt.Errorf("purchase_id is required")
	}
	if c.GatewayPaymentID == "" {
		return nil, fmt.Errorf("gateway_payment_id is required")
	}
	return &c, nil
}

// VerifySignature validates the confirmation HMAC.
// Signature base: purchase_id:gateway_payment_id:amount, keyed with the shared
// gateway secret. An empty configured secret disables verification (dev mode).
func (c *Confirmation) VerifySignature(secret string) bool {
	if secret == "" {
		return true
	}
	if c.Signature == "" {
		return false
	}

	base := fmt.Sprintf("%s:%s:%d", c.PurchaseID, c.GatewayPaymentID, c.Amount)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	expected := hex.EncodeToString(mac.Sum(nil))

	received := strings.ToLower(strings.TrimSpace(c.Signature))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}

// Sign computes the confirmation signature. Used by tests and by the sandbox
// gateway simulator.
func Sign(purchaseID, gatewayPaymentID string, amount int64, secret string) string {
	base := fmt.Sprintf("%s:%s:%d", purchaseID, gatewayPaymentID, amount)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}
