package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	metrics := NewScanMetrics(reg)
	require.NotNil(t, metrics)

	// Test counter operations
	metrics.Cycles.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Cycles))

	metrics.CrossedPairs.Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.CrossedPairs))

	// Test gauge operations
	metrics.PoolsTracked.Set(120)
	assert.Equal(t, float64(120), testutil.ToFloat64(metrics.PoolsTracked))

	// Test histogram operations
	metrics.CycleDuration.Observe(0.2)
	metrics.FetchDuration.WithLabelValues("getReservesByPairs").Observe(0.05)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.FetchDuration))

	expected := `
# HELP arbscan_cycles_total Total number of completed scan cycles
# TYPE arbscan_cycles_total counter
arbscan_cycles_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbscan_cycles_total"))
}

func TestScanMetricsSeparateRegistries(t *testing.T) {
	// registering twice on distinct registries must not panic
	assert.NotPanics(t, func() {
		NewScanMetrics(prometheus.NewRegistry())
		NewScanMetrics(prometheus.NewRegistry())
	})

	reg := prometheus.NewRegistry()
	NewScanMetrics(reg)
	assert.Panics(t, func() { NewScanMetrics(reg) })
}
