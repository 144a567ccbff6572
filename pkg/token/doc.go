// Package token provides credential token generation and hashing.
//
// Token Format:
//
//   - Prefix: caller supplied (tickstate credentials use "tsck_")
//   - Body: Base64 RawURL encoding of DefaultLength random bytes (43 characters)
//
// Hash Format:
//
//   - Prefix: caller supplied (tickstate uses "tsch_")
//   - Body: 64 characters of hex-encoded SHA-256
//
// Tokens come from crypto/rand and are compared through their hashes in
// constant time. Only hashes are persisted.
package token
