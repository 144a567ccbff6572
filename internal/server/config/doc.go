// Package config defines the tickstate-server configuration.
//
//   - config.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: validation (addresses, durations, secret length)
//   - sanitize.go: copies safe to log
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// TICKSTATE_ environment variables and flags.
package config
