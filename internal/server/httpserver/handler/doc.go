// Package handler provides HTTP request handlers for tickstate-server.
//
// Endpoints:
//
//   - GET  /health
//   - GET  /admin/v1/partitions
//   - GET  /admin/v1/partitions/{id}/log
//   - POST /admin/v1/partitions/{id}/unload
//   - POST /admin/v1/partitions/{id}/fork
//   - POST /admin/v1/credentials/verify
//
// Every JSON response uses the Response envelope.
package handler
