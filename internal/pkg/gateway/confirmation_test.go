package gateway

import (
	"strings"
	"testing"
)

func TestParseConfirmation(t *testing.T) {
	body := `{"purchase_id":"p1","gateway_payment_id":"pay_1","amount":100000,"signature":"abc"}`

	c, err := ParseConfirmation(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PurchaseID != "p1" || c.GatewayPaymentID != "pay_1" || c.Amount != 100000 {
		t.Fatalf("parsed confirmation mismatch: %+v", c)
	}
}

func TestParseConfirmationRejectsMissingFields(t *testing.T) {
	cases := []string{
		`not json`,
		`{"gateway_payment_id":"pay_1","amount":1}`,
		`{"purchase_id":"p1","amount":1}`,
	}
	for _, body := range cases {
		if _, err := ParseConfirmation(strings.NewReader(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	const secret = "gateway-secret"

	c := &Confirmation{
		PurchaseID:       "p1",
		GatewayPaymentID: "pay_1",
		Amount:           100000,
	}
	c.Signature = Sign(c.PurchaseID, c.GatewayPaymentID, c.Amount, secret)

	if !c.VerifySignature(secret) {
		t.Fatal("valid signature rejected")
	}

	tampered := *c
	tampered.Amount = 1
	if tampered.VerifySignature(secret) {
		t.Fatal("tampered amount accepted")
	}

	wrongKey := *c
	if wrongKey.VerifySignature("other-secret") {
		t.Fatal("signature keyed with another secret accepted")
	}

	unsigned := &Confirmation{PurchaseID: "p1", GatewayPaymentID: "pay_1", Amount: 1}
	if unsigned.VerifySignature(secret) {
		t.Fatal("missing signature accepted")
	}
}

func TestVerifySignatureDisabledWithoutSecret(t *testing.T) {
	c := &Confirmation{PurchaseID: "p1", GatewayPaymentID: "pay_1", Amount: 1}
	if !c.VerifySignature("") {
		t.Fatal("verification must be a no-op when no secret is configured")
	}
}
