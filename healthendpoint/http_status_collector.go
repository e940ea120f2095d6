package healthendpoint

import "github.com/prometheus/client_golang/prometheus"

// HTTPStatusCollector tracks how many requests are in flight across the
// gateway's listeners.
type HTTPStatusCollector interface {
	prometheus.Collector
	IncConcurrentHTTPRequest()
	DecConcurrentHTTPRequest()
}

// httpStatusCollector wraps a single gauge; the indirection exists so that
// handlers can be tested against a counterfeiter fake instead of a registry.
type httpStatusCollector struct {
	inFlight prometheus.Gauge
}

func NewHTTPStatusCollector(namespace, subsystem string) HTTPStatusCollector {
	return &httpStatusCollector{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "concurrent_http_request",
			Help:      "Number of concurrent http request",
		}),
	}
}

func (c *httpStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	c.inFlight.Describe(ch)
}

func (c *httpStatusCollector) Collect(ch chan<- prometheus.Metric) {
	c.inFlight.Collect(ch)
}

func (c *httpStatusCollector) IncConcurrentHTTPRequest() {
	c.inFlight.Inc()
}

func (c *httpStatusCollector) DecConcurrentHTTPRequest() {
	c.inFlight.Dec()
}
