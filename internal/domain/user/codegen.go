package user

import "crypto/rand"

const referralCodeLength = 8

// generateReferralCode returns a short uppercase alphanumeric code. Ambiguous
// characters (0/O, 1/I) are excluded.
func generateReferralCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, referralCodeLength)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
