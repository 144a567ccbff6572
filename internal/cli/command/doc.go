// Package command provides CLI command definitions for tickstate-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, shared helpers
//   - log.go: offline partition log list, dump and append
//   - fork.go: offline session fork
//   - delta.go: diff and patch against a YAML schema
//   - schema.go: schema fingerprint and layout
//   - admin.go: remote calls against the tickstate-server admin API
//
// Offline commands open the data directory directly and must not run
// against a partition a live server is writing.
package command
