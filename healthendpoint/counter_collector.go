package healthendpoint

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CounterCollector registers named counters up front and lets handlers bump
// them later by their opts, without passing counter handles around.
type CounterCollector interface {
	prometheus.Collector
	AddCounters(opts ...prometheus.CounterOpts)
	Add(opts prometheus.CounterOpts, count int64)
}

type counterCollector struct {
	mu       sync.RWMutex
	counters map[string]prometheus.Counter
}

func NewCounterCollector() CounterCollector {
	return &counterCollector{counters: map[string]prometheus.Counter{}}
}

func (c *counterCollector) AddCounters(opts ...prometheus.CounterOpts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range opts {
		name := prometheus.BuildFQName(o.Namespace, o.Subsystem, o.Name)
		if _, registered := c.counters[name]; !registered {
			c.counters[name] = prometheus.NewCounter(o)
		}
	}
}

// Add is a no-op for counters that were never registered.
func (c *counterCollector) Add(opts prometheus.CounterOpts, count int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name := prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name)
	if counter, registered := c.counters[name]; registered {
		counter.Add(float64(count))
	}
}

func (c *counterCollector) Describe(ch chan<- *prometheus.Desc) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, counter := range c.counters {
		ch <- counter.Desc()
	}
}

func (c *counterCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, counter := range c.counters {
		ch <- counter
	}
}
