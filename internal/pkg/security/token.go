package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of generated tokens: 32 bytes = 256 bits,
// rendered as 64 hex characters.
const tokenBytes = 32

// GenerateToken returns a cryptographically random opaque token for
// verification, reset and session identifiers. Collisions are treated as
// negligible; lookups against stored tokens are always exact-match.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
