// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred on amd64 and arm64, where Go uses hardware AES
//   - ChaCha20-Poly1305: used elsewhere
//
// Ciphertext layout is [nonce][sealed data+tag]. Keys for a given purpose
// are derived from a configured secret with HKDF-SHA256 (DeriveKey).
//
// Usage:
//
//	key, err := adaptive.DeriveKey(secret, "tickstate snapshot v1")
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
