package healthendpoint

import (
	"github.com/prometheus/client_golang/prometheus"
)

type RateLimiterStatus interface {
	NumKeys() int
}

type rateLimiterStatusCollector struct {
	trackedClientsGauge prometheus.Gauge

	status RateLimiterStatus
}

// NewRateLimiterStatusCollector exposes how many distinct clients currently
// hold a token bucket, which is the limiter's memory footprint.
func NewRateLimiterStatusCollector(namespace, subSystem string, status RateLimiterStatus) prometheus.Collector {
	return &rateLimiterStatusCollector{
		trackedClientsGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subSystem,
				Name:      "ratelimit_tracked_clients",
				Help:      "Number of clients with an active rate limit bucket",
			}),
		status: status,
	}
}

func (c *rateLimiterStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.trackedClientsGauge.Desc()
}

func (c *rateLimiterStatusCollector) Collect(ch chan<- prometheus.Metric) {
	m, _ := prometheus.NewConstMetric(c.trackedClientsGauge.Desc(), prometheus.GaugeValue, float64(c.status.NumKeys()))
	ch <- m
}
