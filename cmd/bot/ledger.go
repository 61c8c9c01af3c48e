package bot

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/types"
	"github.com/prometheus/client_golang/prometheus"
)

// timedLedger bounds every ledger call by a timeout and records its latency
type timedLedger struct {
	next     dex.Ledger
	timeout  time.Duration
	duration *prometheus.HistogramVec
}

var _ dex.Ledger = timedLedger{}

func (l timedLedger) call(ctx context.Context, op string) (context.Context, func()) {
	start := time.Now()
	cancel := func() {}
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
	}
	return ctx, func() {
		cancel()
		l.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (l timedLedger) PairsByIndexRange(ctx context.Context, factory common.Address, start, stop int64) ([]types.PairInfo, error) {
	ctx, done := l.call(ctx, "getPairsByIndexRange")
	defer done()
	return l.next.PairsByIndexRange(ctx, factory, start, stop)
}

func (l timedLedger) ReservesByPairs(ctx context.Context, pairs []common.Address) ([]dex.Reserves, error) {
	ctx, done := l.call(ctx, "getReservesByPairs")
	defer done()
	return l.next.ReservesByPairs(ctx, pairs)
}

func (l timedLedger) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, done := l.call(ctx, "blockNumber")
	defer done()
	return l.next.BlockNumber(ctx)
}
