// Package metrics exposes tracer counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/ruco"
)

// Collector reports ruco.ReadStats as Prometheus counters on every scrape.
type Collector struct {
	read          func() ruco.Stats
	emitted       *prometheus.Desc
	filtered      *prometheus.Desc
	dropped       *prometheus.Desc
	handlerErrors *prometheus.Desc
	asyncDropped  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector whose metric names start with namespace.
// An empty namespace yields "ruco".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "ruco"
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "events", name), help, nil, nil)
	}
	return &Collector{
		read:          ruco.ReadStats,
		emitted:       desc("emitted_total", "Trace lines written to the sink."),
		filtered:      desc("filtered_total", "Events rejected by the filter policy."),
		dropped:       desc("dropped_total", "Events lost to a failure inside the tracer."),
		handlerErrors: desc("handler_errors_total", "Observer calls that failed or panicked."),
		asyncDropped:  desc("async_dropped_total", "Async observer calls rejected by a full queue."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.emitted
	ch <- c.filtered
	ch <- c.dropped
	ch <- c.handlerErrors
	ch <- c.asyncDropped
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.read()
	ch <- prometheus.MustNewConstMetric(c.emitted, prometheus.CounterValue, float64(s.Emitted))
	ch <- prometheus.MustNewConstMetric(c.filtered, prometheus.CounterValue, float64(s.Filtered))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.handlerErrors, prometheus.CounterValue, float64(s.HandlerErrors))
	ch <- prometheus.MustNewConstMetric(c.asyncDropped, prometheus.CounterValue, float64(s.AsyncDropped))
}

// Register adds a collector for namespace to reg, or to the default
// registerer when reg is nil.
func Register(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := NewCollector(namespace)
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
