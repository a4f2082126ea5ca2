package bike

import "github.com/prometheus/client_golang/prometheus"

var inventoryRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inventory_requests_total",
		Help: "Inventory API reads by operation and outcome",
	},
	[]string{"op", "outcome"},
)

// Collectors returns the metrics exported by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{inventoryRequests}
}
