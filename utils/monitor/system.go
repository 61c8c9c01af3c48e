package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// SystemMonitor samples runtime statistics of the scanner process
type SystemMonitor struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	interval time.Duration
	metrics  struct {
		goroutines  prometheus.Gauge
		heapObjects prometheus.Gauge
		heapAlloc   prometheus.Gauge
		sysBytes    prometheus.Gauge
		gcPause     prometheus.Gauge
		numGC       prometheus.Gauge
	}
	wg sync.WaitGroup
}

// NewSystemMonitor registers the runtime gauges on reg and starts sampling
// every interval until ctx is done or Cleanup is called
func NewSystemMonitor(ctx context.Context, reg prometheus.Registerer, interval time.Duration, logger *zap.Logger) (*SystemMonitor, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	m := &SystemMonitor{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		interval: interval,
	}

	factory := promauto.With(reg)
	m.metrics.goroutines = factory.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Current number of goroutines",
	})
	m.metrics.heapObjects = factory.NewGauge(prometheus.GaugeOpts{
		Name: "system_heap_objects",
		Help: "Current number of heap objects",
	})
	m.metrics.heapAlloc = factory.NewGauge(prometheus.GaugeOpts{
		Name: "system_heap_alloc_bytes",
		Help: "Current heap allocation in bytes",
	})
	m.metrics.sysBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_sys_bytes",
		Help: "Memory obtained from the OS in bytes",
	})
	m.metrics.gcPause = factory.NewGauge(prometheus.GaugeOpts{
		Name: "system_gc_pause_seconds",
		Help: "Duration of the most recent GC pause",
	})
	m.metrics.numGC = factory.NewGauge(prometheus.GaugeOpts{
		Name: "system_gc_cycles",
		Help: "Number of completed GC cycles",
	})

	m.collectMetrics()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.monitor()
	}()

	return m, nil
}

// monitor periodically collects system metrics
func (m *SystemMonitor) monitor() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.collectMetrics()
		}
	}
}

func (m *SystemMonitor) collectMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.metrics.goroutines.Set(float64(runtime.NumGoroutine()))
	m.metrics.heapObjects.Set(float64(memStats.HeapObjects))
	m.metrics.heapAlloc.Set(float64(memStats.HeapAlloc))
	m.metrics.sysBytes.Set(float64(memStats.Sys))
	m.metrics.gcPause.Set(lastPause(&memStats).Seconds())
	m.metrics.numGC.Set(float64(memStats.NumGC))
}

// GetMetrics returns current system metrics
func (m *SystemMonitor) GetMetrics() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"goroutines":   int64(runtime.NumGoroutine()),
		"heap_objects": int64(memStats.HeapObjects),
		"heap_alloc":   int64(memStats.HeapAlloc),
		"sys_bytes":    int64(memStats.Sys),
		"gc_pause":     lastPause(&memStats).Seconds(),
		"gc_cycles":    int64(memStats.NumGC),
	}
}

// LogSummary writes the current runtime statistics at debug level
func (m *SystemMonitor) LogSummary() {
	stats := m.GetMetrics()
	m.logger.Debug("Runtime stats",
		zap.Int64("goroutines", stats["goroutines"].(int64)),
		zap.Int64("heap_alloc", stats["heap_alloc"].(int64)),
		zap.Int64("gc_cycles", stats["gc_cycles"].(int64)))
}

// Cleanup stops sampling
func (m *SystemMonitor) Cleanup() error {
	m.cancel()
	m.wg.Wait()
	return nil
}

func lastPause(memStats *runtime.MemStats) time.Duration {
	if memStats.NumGC == 0 {
		return 0
	}
	return time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256])
}
