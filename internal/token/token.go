// Package token issues and verifies opaque provision tokens. Raw tokens are
// handed to the end user exactly once (in the password-set email); only the
// SHA-256 hash is ever persisted.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// DefaultLength is the number of characters in a generated token.
const DefaultLength = 64

// alphabet is URI-safe: mixed-case letters and digits only.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate produces a cryptographically random token of the given length.
// A non-positive length falls back to DefaultLength.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	buf := make([]byte, length)
	maxIndex := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, maxIndex)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// Hash returns the SHA-256 hash of a token as a lowercase hex string.
// Tokens are high-entropy, unguessable values; a salt is not required.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash of a presented token and compares it against
// the stored hash in constant time.
func Verify(presented, storedHash string) bool {
	return hmac.Equal([]byte(Hash(presented)), []byte(storedHash))
}
