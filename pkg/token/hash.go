package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash computes the hex-encoded SHA-256 hash of a token.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// HashPrefixed computes Hash and prepends prefix.
func HashPrefixed(prefix, token string) string {
	return prefix + Hash(token)
}

// Verify verifies a token against an expected hex hash.
//
// Uses constant-time comparison to prevent timing attacks.
func Verify(token, expectedHash string) bool {
	return Equal(Hash(token), expectedHash)
}

// Equal compares two hashes in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
