package schema

import (
	"strconv"

	"github.com/spaolacci/murmur3"
)

// Fingerprint returns a stable 64-bit hash of t's canonical description.
// Types with the same shape, field names and field order share a
// fingerprint.
func Fingerprint(t *Type) uint64 {
	return murmur3.Sum64([]byte(t.String()))
}

// FingerprintString returns Fingerprint in hex.
func FingerprintString(t *Type) string {
	return strconv.FormatUint(Fingerprint(t), 16)
}
