package bot

import (
	"sync"
	"time"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
	"go.uber.org/zap"
)

// CircuitBreaker counts consecutive failed cycles. Once the threshold is
// reached it opens for the cooldown period; the first cycle after the
// cooldown is a probe that closes it on success or reopens it on failure.
type CircuitBreaker struct {
	config   config.CircuitBreakerConfig
	failures int
	open     bool
	halfOpen bool
	tripped  time.Time
	now      func() time.Time
	mu       sync.RWMutex
	logger   *zap.Logger
	metrics  *metrics.ScanMetrics
}

func NewCircuitBreaker(cfg config.CircuitBreakerConfig, m *metrics.ScanMetrics, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		config:  cfg,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// RecordError registers a failed cycle and reports whether the breaker is
// now open
func (cb *CircuitBreaker) RecordError(err error) bool {
	if !cb.config.Enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.halfOpen || cb.failures >= cb.config.ErrorThreshold {
		cb.tripCircuit(err)
		return true
	}
	return false
}

// RecordSuccess closes the breaker and clears the failure count
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.halfOpen {
		cb.logger.Info("Circuit breaker reset",
			zap.Duration("cooldown_period", cb.config.CooldownPeriod))
	}
	cb.failures = 0
	cb.open = false
	cb.halfOpen = false
	cb.metrics.BreakerOpen.Set(0)
}

func (cb *CircuitBreaker) tripCircuit(err error) {
	cb.open = true
	cb.halfOpen = false
	cb.tripped = cb.now()
	cb.metrics.BreakerTrips.Inc()
	cb.metrics.BreakerOpen.Set(1)

	cb.logger.Warn("Circuit breaker tripped",
		zap.Int("error_count", cb.failures),
		zap.Duration("cooldown_period", cb.config.CooldownPeriod),
		zap.Error(err))
}

// Remaining returns how long the breaker stays open. Once it reaches zero
// the breaker moves to half-open and lets one probe cycle through.
func (cb *CircuitBreaker) Remaining() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return 0
	}
	left := cb.config.CooldownPeriod - cb.now().Sub(cb.tripped)
	if left > 0 {
		return left
	}
	cb.open = false
	cb.halfOpen = true
	return 0
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.open
}

func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}
