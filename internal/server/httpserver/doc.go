// Package httpserver provides the admin HTTP server for tickstate-server.
//
// It uses the Go standard library net/http:
//
//   - Admin endpoints: /admin/v1/partitions/*, /admin/v1/credentials/verify
//   - Health endpoints: /health, /metrics
//
// Middleware chain: Recover, RequestID, Metrics, AccessLog, AdminAuth.
// The fork endpoint is additionally rate limited.
package httpserver
