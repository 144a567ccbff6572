// Package metric provides the process Prometheus registry.
//
// Components register their own collectors through Registerer()
// (partition log, Badger, rooms, forks, credentials). This package adds
// the Go runtime and process collectors, HTTP request metrics used by the
// admin server middleware, build info, and a partition count collector.
//
// Metrics are exposed at /metrics in Prometheus format via Handler.
package metric
