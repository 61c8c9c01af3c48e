package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	"github.com/michaelpento.lv/arbscan/reporter"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
	umath "github.com/michaelpento.lv/arbscan/utils/math"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is the phase the scan loop is in
type State int32

const (
	StateInitializing State = iota
	StateScanning
	StateEvaluating
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateScanning:
		return "scanning"
	case StateEvaluating:
		return "evaluating"
	case StateReporting:
		return "reporting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Bot represents the arbitrage scanner instance
type Bot struct {
	cfg      *config.Config
	ledger   dex.Ledger
	reporter reporter.Reporter
	metrics  *metrics.ScanMetrics
	logger   *zap.Logger

	detector *arbitrage.Detector
	breaker  *CircuitBreaker
	backoff  *backoff.ExponentialBackOff

	pairs []*uniswap.Pair
	cycle uint64
	state atomic.Int32

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new scanner. A nil reporter discards reports and nil metrics
// are registered on a private registry.
func New(cfg *config.Config, ledger dex.Ledger, rep reporter.Reporter, m *metrics.ScanMetrics, logger *zap.Logger) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewScanMetrics(prometheus.NewRegistry())
	}
	if rep == nil {
		rep = reporter.Multi{}
	}

	detector, err := arbitrage.NewDetector(arbitrage.DetectorConfig{
		Base:         cfg.BaseToken,
		MinLiquidity: cfg.MinReserveLiquidity,
		MinProfit:    cfg.MinProfit,
		ProbeVolume:  cfg.ProbeVolume,
		TestVolumes:  cfg.TestVolumes,
		Searcher:     newSearcher(cfg.Search),
		BestPerToken: cfg.Report.BestPerToken,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	return &Bot{
		cfg:      cfg,
		ledger:   timedLedger{next: ledger, timeout: cfg.FetchTimeout, duration: m.FetchDuration},
		reporter: rep,
		metrics:  m,
		logger:   logger,
		detector: detector,
		breaker:  NewCircuitBreaker(cfg.CircuitBreaker, m, logger),
		backoff:  newBackoff(cfg.Backoff),
		sleep:    sleepContext,
	}, nil
}

func newSearcher(cfg config.SearchConfig) arbitrage.Searcher {
	if cfg.Strategy == config.StrategyTernary {
		return arbitrage.TernarySearch{Tolerance: cfg.Tolerance, MaxIterations: cfg.MaxIterations}
	}
	return arbitrage.GridSearch{}
}

func newBackoff(cfg config.BackoffConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.Multiplier = cfg.Multiplier
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// State returns the current phase of the scan loop
func (b *Bot) State() State {
	return State(b.state.Load())
}

func (b *Bot) setState(s State) {
	b.state.Store(int32(s))
}

// Pairs returns the pools found by Initialize
func (b *Bot) Pairs() []*uniswap.Pair {
	return b.pairs
}

// Markets groups the tracked pools by token, using their current reserves
func (b *Bot) Markets() arbitrage.Markets {
	return b.detector.Group(b.pairs)
}

// Run starts the scan loop. It returns only once ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting arbitrage scanner...",
		zap.String("chain", b.cfg.Chain),
		zap.String("base_token", b.cfg.BaseToken.Hex()),
		zap.String("search", b.cfg.Search.Strategy))

	if err := b.Initialize(ctx); err != nil {
		return err
	}

	for {
		if wait := b.breaker.Remaining(); wait > 0 {
			b.logger.Info("Circuit breaker open, pausing scans", zap.Duration("wait", wait))
			if err := b.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if _, err := b.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := b.handleFailure(err)
			if err := b.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		b.breaker.RecordSuccess()
		b.backoff.Reset()
		if err := b.sleep(ctx, b.cfg.ScanInterval); err != nil {
			return err
		}
	}
}

// handleFailure logs a failed cycle and returns how long to wait before the next one
func (b *Bot) handleFailure(err error) time.Duration {
	b.metrics.CycleFailures.Inc()

	if dex.IsFetchError(err) || errors.Is(err, context.DeadlineExceeded) {
		b.logger.Warn("Scan cycle failed, retrying", zap.Error(err))
	} else {
		b.logger.Error("Scan cycle failed", zap.Error(err))
	}

	if b.breaker.RecordError(err) {
		return b.breaker.Remaining()
	}
	return b.backoff.NextBackOff()
}

// Initialize discovers the pools of every factory. Fetch failures are retried
// with backoff until discovery succeeds or ctx is done.
func (b *Bot) Initialize(ctx context.Context) error {
	b.setState(StateInitializing)

	discover := func() error {
		pairs, err := uniswap.Discover(ctx, b.ledger, b.cfg.Factories, b.cfg.BaseToken, b.cfg.Blacklist, uniswap.DiscoveryOptions{
			BatchSize:       b.cfg.BatchSize,
			BatchCountLimit: b.cfg.BatchCountLimit,
			Logger:          b.logger,
		})
		if err != nil {
			if dex.IsFetchError(err) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return backoff.Permanent(err)
		}
		b.pairs = pairs
		return nil
	}
	notify := func(err error, wait time.Duration) {
		b.logger.Warn("Pool discovery failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	policy := newBackoff(b.cfg.Backoff)
	if err := backoff.RetryNotify(discover, backoff.WithContext(policy, ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to discover pools: %w", err)
	}

	b.metrics.PoolsTracked.Set(float64(len(b.pairs)))
	b.logger.Info("Processing pairs", zap.Int("pairs", len(b.pairs)))
	return nil
}

// RunCycle refreshes every reserve, evaluates the markets and reports the
// result. A failed refresh abandons the cycle before evaluation.
func (b *Bot) RunCycle(ctx context.Context) (*reporter.Report, error) {
	start := time.Now()

	b.setState(StateScanning)
	block, err := b.ledger.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}

	b.setState(StateEvaluating)
	markets := b.detector.Group(b.pairs)
	eval := b.detector.Evaluate(markets)

	b.setState(StateReporting)
	b.cycle++
	report := &reporter.Report{
		Cycle:         b.cycle,
		Block:         block,
		Opportunities: eval.Opportunities,
		Pools:         len(b.pairs),
		Markets:       len(markets),
		CrossedPairs:  eval.CrossedPairs,
		Duration:      time.Since(start),
	}
	if err := b.reporter.Report(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to report cycle %d: %w", report.Cycle, err)
	}
	b.observe(report, eval)
	return report, nil
}

func (b *Bot) observe(report *reporter.Report, eval *arbitrage.Evaluation) {
	b.metrics.Cycles.Inc()
	b.metrics.CycleDuration.Observe(report.Duration.Seconds())
	b.metrics.MarketsTracked.Set(float64(report.Markets))
	b.metrics.CrossedPairs.Add(float64(eval.CrossedPairs))
	b.metrics.PricingErrors.Add(float64(eval.Errors))
	b.metrics.Opportunities.Set(float64(len(eval.Opportunities)))
	b.metrics.LastBlock.Set(float64(report.Block))

	best := 0.0
	if len(eval.Opportunities) > 0 {
		best = umath.ToFloat(eval.Opportunities[0].Profit, b.cfg.BaseDecimals)
	}
	b.metrics.BestProfit.Set(best)
}

// Refresh fetches the reserves of every tracked pool. Chunks are fetched
// concurrently and each one updates a disjoint set of pools.
func (b *Bot) Refresh(ctx context.Context) error {
	chunks := umath.Chunk(len(b.pairs), b.cfg.ReserveBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		pools := b.pairs[chunk[0]:chunk[1]]
		g.Go(func() error {
			addresses := make([]common.Address, len(pools))
			for i, pool := range pools {
				addresses[i] = pool.Address()
			}

			reserves, err := b.ledger.ReservesByPairs(gctx, addresses)
			if err != nil {
				return err
			}
			if len(reserves) != len(pools) {
				return dex.NewFetchError("getReservesByPairs",
					fmt.Errorf("requested %d reserves, got %d", len(pools), len(reserves)))
			}
			for i, pool := range pools {
				pool.UpdateReserves(reserves[i].Reserve0, reserves[i].Reserve1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.logger.Debug("Refreshed reserves",
		zap.Int("pairs", len(b.pairs)),
		zap.Int("chunks", len(chunks)))
	return nil
}
