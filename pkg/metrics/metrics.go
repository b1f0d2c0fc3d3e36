package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Database metrics
	DBOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_db_operations_total",
			Help: "Total number of volume database operations by operation and result",
		},
		[]string{"op", "result"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burrow_db_operation_duration_seconds",
			Help:    "Volume database operation duration in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	DBRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_db_retries_total",
			Help: "Total number of operation retries due to database lock contention",
		},
	)

	DBBusyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_db_busy_total",
			Help: "Total number of operations that exhausted their retry budget",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(DBOperationsTotal)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(DBRetriesTotal)
	prometheus.MustRegister(DBBusyTotal)
}

// Handler returns the Prometheus HTTP handler for hosts that expose
// a metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
