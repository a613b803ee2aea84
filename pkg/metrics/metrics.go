// Package metrics exposes execution counters on a dedicated Prometheus
// registry. Operators record into the package-level collectors; the CLI
// serves the registry over HTTP.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sqlcore"

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var (
	TuplesEmitted = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "execution",
		Name:      "tuples_emitted_total",
		Help:      "Tuples returned by physical operators, by operator.",
	}, []string{"operator"})

	SpillRuns = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "execution",
		Name:      "spill_runs_total",
		Help:      "Temporary run or partition files written, by operator.",
	}, []string{"operator"})

	SpillBytes = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "execution",
		Name:      "spill_bytes_total",
		Help:      "Bytes written to spill files after compression, by operator.",
	}, []string{"operator"})

	HashPartitions = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "execution",
		Name:      "hash_join_partitions_total",
		Help:      "Partitions created by hash joins whose build side exceeded the in-memory limit.",
	})

	JoinStrategy = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "join_strategy_total",
		Help:      "Join operators chosen by the physical planner, by strategy.",
	}, []string{"strategy"})

	OptimizerPasses = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "optimizer",
		Name:      "pass_iterations_total",
		Help:      "Iterations run per optimizer pass.",
	}, []string{"pass"})

	queriesTotal = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Total number of queries executed.",
	})

	queryErrors = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_errors_total",
		Help:      "Total number of queries that failed.",
	})

	queryDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Wall time from planning to the last returned tuple.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	})

	lastQuery = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_query_timestamp_seconds",
		Help:      "Unix timestamp of the last finished query.",
	})
)

// RecordQuery accounts one finished query.
func RecordQuery(duration time.Duration, err error) {
	queriesTotal.Inc()
	if err != nil {
		queryErrors.Inc()
	}
	queryDuration.Observe(duration.Seconds())
	lastQuery.SetToCurrentTime()
}
