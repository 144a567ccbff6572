package snapshot

import (
	"github.com/yndnr/tickstate-go/pkg/crypto/adaptive"
)

// KeyInfo is the HKDF context string for snapshot keys.
const KeyInfo = "tickstate snapshot v1"

// EncryptionConfig configures snapshot encryption.
type EncryptionConfig struct {
	// Secret is the master secret. Encryption is off when empty.
	Secret []byte

	// Algorithm is "aes-gcm", "chacha20-poly1305" or "" for automatic.
	Algorithm string
}

// NewCipher derives the snapshot key from cfg.Secret and returns the
// configured cipher, or nil when no secret is set.
func NewCipher(cfg EncryptionConfig) (adaptive.Cipher, error) {
	if len(cfg.Secret) == 0 {
		return nil, nil
	}
	key, err := adaptive.DeriveKey(cfg.Secret, KeyInfo)
	if err != nil {
		return nil, err
	}
	return adaptive.NewWithType(key, adaptive.CipherType(cfg.Algorithm))
}
