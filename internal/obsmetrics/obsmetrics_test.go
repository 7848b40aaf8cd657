package obsmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}

	for _, name := range []string{
		"objectquel_compile_duration_seconds",
		"objectquel_compile_failures_total",
		"objectquel_pagination_round_trips_total",
	} {
		assert.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestRecordCompileTracksFailuresByCode(t *testing.T) {
	before := testutil.ToFloat64(compileFailures.WithLabelValues("SEMANTIC_DUPLICATE_RANGE"))
	RecordCompile(5*time.Millisecond, "SEMANTIC_DUPLICATE_RANGE")
	after := testutil.ToFloat64(compileFailures.WithLabelValues("SEMANTIC_DUPLICATE_RANGE"))
	assert.Equal(t, before+1, after)
}

// compileDurationSamples returns how many observations the compile
// duration histogram has recorded so far.
func compileDurationSamples(t *testing.T) uint64 {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "objectquel_compile_duration_seconds" {
			return f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatal("objectquel_compile_duration_seconds not registered")
	return 0
}

func TestRecordCompileSuccessRecordsDurationOnly(t *testing.T) {
	beforeCount := compileDurationSamples(t)
	RecordCompile(time.Millisecond, "")
	afterCount := compileDurationSamples(t)
	assert.Equal(t, beforeCount+1, afterCount)
}

func TestRecordPaginationRoundTrip(t *testing.T) {
	before := testutil.ToFloat64(paginationRoundTrips)
	RecordPaginationRoundTrip()
	after := testutil.ToFloat64(paginationRoundTrips)
	assert.Equal(t, before+1, after)
}
