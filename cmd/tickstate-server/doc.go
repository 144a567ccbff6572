// Package main provides the entry point for tickstate-server.
//
// The server owns a data directory of partition logs, snapshots and the
// credential registry, and serves the admin HTTP API:
//
//   - partition listing, log dumps and handle unloads
//   - session forks with per-participant credentials and join URLs
//   - credential verification
//   - /health and Prometheus /metrics
//
// Usage:
//
//	tickstate-server [flags]
//	tickstate-server --config /etc/tickstate/server.yaml
//
// Configuration is read from the YAML file, then TICKSTATE_ environment
// variables (TICKSTATE_SERVER__ADMIN_ADDR), then flags. When a config file
// is given, edits to log.level are applied without a restart.
package main
