// Package connection provides the tickstate-server admin API client used by
// tickstate-cli.
package connection
