package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL is the lifetime of a password-reset token.
const ResetTokenTTL = time.Hour

// NewResetToken generates a cryptographically random 64-character hex token.
// The token carries no structure; it is matched by equality against the
// stored value.
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ExpiryFrom returns the absolute expiry for a token issued at now.
func ExpiryFrom(now time.Time) time.Time {
	return now.Add(ResetTokenTTL)
}
