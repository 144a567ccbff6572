package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(n int) []byte {
	k := make([]byte, n)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestNew(t *testing.T) {
	c, err := New(testKey(32))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Type() != CipherAESGCM && c.Type() != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type: %s", c.Type())
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		typ     CipherType
		keyLen  int
		wantErr error
	}{
		{"aes-128", CipherAESGCM, 16, nil},
		{"aes-256", CipherAESGCM, 32, nil},
		{"aes bad key", CipherAESGCM, 20, ErrInvalidKeySize},
		{"chacha20", CipherChaCha20, 32, nil},
		{"chacha20 bad key", CipherChaCha20, 16, ErrInvalidKeySize},
		{"unknown", "rot13", 32, ErrUnknownAlgorithm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithType(testKey(tt.keyLen), tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && c.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", c.Type(), tt.typ)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(testKey(32), typ)
			if err != nil {
				t.Fatalf("NewWithType: %v", err)
			}
			plaintext := []byte("tick 42")
			aad := []byte("partition-1")

			sealed, err := c.Encrypt(plaintext, aad)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if len(sealed) != c.NonceSize()+len(plaintext)+c.Overhead() {
				t.Errorf("sealed length = %d", len(sealed))
			}
			again, _ := c.Encrypt(plaintext, aad)
			if bytes.Equal(sealed, again) {
				t.Error("two encryptions produced identical output")
			}

			got, err := c.Decrypt(sealed, aad)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("Decrypt() = %q, want %q", got, plaintext)
			}

			if _, err := c.Decrypt(sealed, []byte("partition-2")); err == nil {
				t.Error("Decrypt with wrong additional data should fail")
			}
			sealed[len(sealed)-1] ^= 1
			if _, err := c.Decrypt(sealed, aad); err == nil {
				t.Error("Decrypt of tampered data should fail")
			}
			if _, err := c.Decrypt(sealed[:4], aad); !errors.Is(err, ErrCiphertextShort) {
				t.Errorf("short ciphertext err = %v", err)
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("0123456789abcdef")
	a, err := DeriveKey(secret, "snapshot")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	b, _ := DeriveKey(secret, "snapshot")
	other, _ := DeriveKey(secret, "credentials")

	if len(a) != KeySize {
		t.Errorf("key length = %d, want %d", len(a), KeySize)
	}
	if !bytes.Equal(a, b) {
		t.Error("DeriveKey is not deterministic")
	}
	if bytes.Equal(a, other) {
		t.Error("different info produced the same key")
	}
	if _, err := DeriveKey([]byte("short"), "x"); !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("short secret err = %v", err)
	}
}
