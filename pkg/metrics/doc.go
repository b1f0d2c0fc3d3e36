/*
Package metrics provides Prometheus instrumentation for Burrow.

All metrics are package-level collectors registered with the default
registry at init time. The volume database increments operation, retry
and busy counters; hosting processes that want a scrape endpoint mount
Handler() on their HTTP mux.

# Metrics

  - burrow_db_operations_total{op, result}: operation outcomes
  - burrow_db_operation_duration_seconds{op}: latency including retries
  - burrow_db_retries_total: retries caused by lock contention
  - burrow_db_busy_total: operations that exhausted the retry budget

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DBOperationDuration, "add")

	metrics.DBOperationsTotal.WithLabelValues("add", "ok").Inc()

# See Also

  - pkg/volumedb for the instrumented operations
*/
package metrics
