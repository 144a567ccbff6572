package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// Sensitive value prefixes that are partially masked.
var sensitiveValuePrefixes = []string{
	domain.CredentialTokenPrefix,
}

// Sensitive key patterns that are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
}

// Keys that match a pattern but only ever carry non-secret values.
var safeKeys = map[string]bool{
	"token_hash":    true,
	"credential_id": true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks known token formats and redacts string values of
// sensitive-looking keys. Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		// A known prefix takes priority over key-based detection.
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// RedactString masks a token-shaped value as prefix + first 3 + "..." +
// last 3 characters. Other values are returned unchanged.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if !strings.HasPrefix(value, prefix) {
			continue
		}
		body := value[len(prefix):]
		if len(body) <= 6 {
			return prefix + "***"
		}
		return prefix + body[:3] + "..." + body[len(body)-3:]
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if safeKeys[keyLower] {
		return false
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be a plaintext token.
func IsSensitiveValue(value string) bool {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
