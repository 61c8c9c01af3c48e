package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every scanner metric
const Namespace = "arbscan"

// ScanMetrics tracks the scan loop
type ScanMetrics struct {
	Cycles         prometheus.Counter
	CycleFailures  prometheus.Counter
	CycleDuration  prometheus.Histogram
	FetchDuration  *prometheus.HistogramVec
	PoolsTracked   prometheus.Gauge
	MarketsTracked prometheus.Gauge
	CrossedPairs   prometheus.Counter
	Opportunities  prometheus.Gauge
	BestProfit     prometheus.Gauge
	PricingErrors  prometheus.Counter
	BreakerTrips   prometheus.Counter
	BreakerOpen    prometheus.Gauge
	LastBlock      prometheus.Gauge
}

// NewScanMetrics registers the scan metrics on reg
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	factory := promauto.With(reg)
	return &ScanMetrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed scan cycles",
		}),
		CycleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cycle_failures_total",
			Help:      "Total number of abandoned scan cycles",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time taken by one scan cycle",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of ledger calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		PoolsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pools_tracked",
			Help:      "Number of pools refreshed each cycle",
		}),
		MarketsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "markets_tracked",
			Help:      "Number of tokens with at least one liquid pool",
		}),
		CrossedPairs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "crossed_pairs_total",
			Help:      "Total number of crossed pool pairs evaluated",
		}),
		Opportunities: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "opportunities",
			Help:      "Number of opportunities reported by the last cycle",
		}),
		BestProfit: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "best_profit",
			Help:      "Best profit of the last cycle in whole base token units",
		}),
		PricingErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pricing_errors_total",
			Help:      "Total number of pricing errors during evaluation",
		}),
		BreakerTrips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "breaker_trips_total",
			Help:      "Total number of times the circuit breaker opened",
		}),
		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker is open",
		}),
		LastBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_block",
			Help:      "Block number seen by the last cycle",
		}),
	}
}
