package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the key length produced by DeriveKey and accepted by both ciphers.
const KeySize = 32

// MinSecretLength is the shortest secret DeriveKey accepts.
const MinSecretLength = 16

var (
	ErrSecretTooShort   = errors.New("adaptive: secret too short (minimum 16 bytes)")
	ErrInvalidKeySize   = errors.New("adaptive: invalid key size")
	ErrCiphertextShort  = errors.New("adaptive: ciphertext too short")
	ErrUnknownAlgorithm = errors.New("adaptive: unknown cipher type")
)

// Cipher provides authenticated encryption. Implementations are safe for
// concurrent use.
type Cipher interface {
	Type() CipherType
	Encrypt(plaintext, additionalData []byte) ([]byte, error)
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// New creates a cipher for key, choosing the algorithm from the platform.
func New(key []byte) (Cipher, error) {
	if hasAESNI() {
		return NewWithType(key, CipherAESGCM)
	}
	return NewWithType(key, CipherChaCha20)
}

// NewWithType creates a cipher of the specified type. An empty type selects
// automatically.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	switch t {
	case "":
		return New(key)
	case CipherAESGCM:
		switch len(key) {
		case 16, 24, 32:
		default:
			return nil, ErrInvalidKeySize
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &aead{typ: t, aead: gcm}, nil
	case CipherChaCha20:
		if len(key) != chacha20poly1305.KeySize {
			return nil, ErrInvalidKeySize
		}
		c, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		return &aead{typ: t, aead: c}, nil
	}
	return nil, ErrUnknownAlgorithm
}

// DeriveKey derives a KeySize key for one purpose from secret using
// HKDF-SHA256 with info as the context string.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// hasAESNI reports whether Go uses hardware AES on this architecture.
func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

type aead struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aead) Type() CipherType { return c.typ }
func (c *aead) NonceSize() int { return c.aead.NonceSize() }
func (c *aead) Overhead() int { return c.aead.Overhead() }

// Encrypt seals plaintext under a random nonce and prepends the nonce.
func (c *aead) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (c *aead) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n+c.aead.Overhead() {
		return nil, ErrCiphertextShort
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
