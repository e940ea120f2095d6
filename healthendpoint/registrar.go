package healthendpoint

import (
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterCollectors wires the gateway's collectors into a registry,
// optionally together with the standard process and Go runtime collectors.
// A collector that fails to register is logged and skipped, metrics are not
// worth refusing to start over.
func RegisterCollectors(registry prometheus.Registerer, cols []prometheus.Collector, withRuntimeMetrics bool, logger lager.Logger) {
	if withRuntimeMetrics {
		cols = append(runtimeCollectors(), cols...)
	}

	for _, col := range cols {
		if err := registry.Register(col); err != nil {
			logger.Error("failed-to-register-collector", err, lager.Data{"collector": col})
		}
	}
}

func runtimeCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			PidFn: func() (int, error) { return os.Getpid(), nil },
		}),
		collectors.NewGoCollector(),
	}
}
