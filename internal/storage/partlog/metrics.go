package partlog

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	appends     prometheus.Counter
	appendBytes prometheus.Counter
	openHandles prometheus.Gauge
	evictions   prometheus.Counter
	unloads     prometheus.Counter
	corruptions prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "partlog",
			Name:      "appends_total",
			Help:      "Records appended to partition logs",
		}),
		appendBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "partlog",
			Name:      "append_bytes_total",
			Help:      "Bytes appended to partition logs, headers included",
		}),
		openHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tickstate",
			Subsystem: "partlog",
			Name:      "open_handles",
			Help:      "Cached append handles currently open",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "partlog",
			Name:      "handle_evictions_total",
			Help:      "Append handles closed to stay under the cache bound",
		}),
		unloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "partlog",
			Name:      "unloads_total",
			Help:      "Append handles closed by Unload",
		}),
		corruptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "partlog",
			Name:      "corruptions_total",
			Help:      "Loads that stopped at a truncated record",
		}),
	}
}

// RegisterMetrics registers the store metrics with registry.
//
// This should be called once during initialization.
// Returns the store for method chaining.
func (s *Store) RegisterMetrics(registry prometheus.Registerer) *Store {
	registry.MustRegister(
		s.metrics.appends,
		s.metrics.appendBytes,
		s.metrics.openHandles,
		s.metrics.evictions,
		s.metrics.unloads,
		s.metrics.corruptions,
	)
	return s
}
