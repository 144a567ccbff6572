package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Security.SnapshotSecret = maskSecret(sanitized.Security.SnapshotSecret)
	sanitized.Security.AdminToken = maskSecret(sanitized.Security.AdminToken)
	return &sanitized
}

// maskSecret keeps two characters at each end of long secrets.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
	}
}
