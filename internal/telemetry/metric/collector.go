package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// PartitionLister lists partitions that have a log on disk.
type PartitionLister interface {
	List() ([]domain.PartitionID, error)
}

// Collector reports the number of partition logs at scrape time.
type Collector struct {
	lister     PartitionLister
	partitions *prometheus.Desc
	errors     *prometheus.Desc
}

// NewCollector creates a collector over lister.
func NewCollector(lister PartitionLister) *Collector {
	return &Collector{
		lister: lister,
		partitions: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "partlog", "partitions"),
			"Partition logs present on disk",
			nil, nil,
		),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "partlog", "list_errors"),
			"1 if listing partition logs failed during this scrape",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.partitions
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ids, err := c.lister.List()
	failed := 0.0
	if err != nil {
		failed = 1
	}
	ch <- prometheus.MustNewConstMetric(c.partitions, prometheus.GaugeValue, float64(len(ids)))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, failed)
}
