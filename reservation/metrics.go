package reservation

import "github.com/prometheus/client_golang/prometheus"

var ledgerOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Reservation ledger operations by kind and outcome",
	},
	[]string{"op", "outcome"},
)

// Collectors returns the metrics exported by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{ledgerOps}
}
