// Package obsmetrics exposes Prometheus instrumentation around
// objectquel.Compile: compile duration, pass failures by error code, and
// pagination round-trips. cmd/objectquelc records compile outcomes, the
// paginate package records its round trips, and cmd/objectquelc's
// serve-metrics command exposes the result.
package obsmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "objectquel_compile_duration_seconds",
		Help:    "Histogram of objectquel.Compile latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	compileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "objectquel_compile_failures_total",
		Help: "Total number of Compile failures by error code",
	}, []string{"code"})

	paginationRoundTrips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "objectquel_pagination_round_trips_total",
		Help: "Total number of auxiliary primary-key fetches issued by the pagination rewriter",
	})
)

// RecordCompile records the outcome and duration of a Compile call. code is
// the objerr.Code() of the returned error, or "" on success.
func RecordCompile(duration time.Duration, code string) {
	compileDuration.Observe(duration.Seconds())
	if code != "" {
		compileFailures.WithLabelValues(code).Inc()
	}
}

// RecordPaginationRoundTrip increments the pagination auxiliary-fetch
// counter. Called once per QueryExecutor.FetchColumn invocation.
func RecordPaginationRoundTrip() {
	paginationRoundTrips.Inc()
}
