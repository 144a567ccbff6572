// Package shutdown runs named cleanup hooks in reverse registration order
// when the process receives SIGINT or SIGTERM, bounded by a timeout.
package shutdown
