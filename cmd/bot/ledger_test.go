package bot

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/types"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingLedger waits for its context on every call
type blockingLedger struct{}

func (blockingLedger) PairsByIndexRange(ctx context.Context, _ common.Address, _, _ int64) ([]types.PairInfo, error) {
	<-ctx.Done()
	return nil, dex.NewFetchError("getPairsByIndexRange", ctx.Err())
}

func (blockingLedger) ReservesByPairs(ctx context.Context, _ []common.Address) ([]dex.Reserves, error) {
	<-ctx.Done()
	return nil, dex.NewFetchError("getReservesByPairs", ctx.Err())
}

func (blockingLedger) BlockNumber(ctx context.Context) (uint64, error) {
	<-ctx.Done()
	return 0, dex.NewFetchError("blockNumber", ctx.Err())
}

func TestTimedLedgerAppliesTimeout(t *testing.T) {
	m := metrics.NewScanMetrics(prometheus.NewRegistry())
	ledger := timedLedger{next: blockingLedger{}, timeout: 10 * time.Millisecond, duration: m.FetchDuration}

	_, err := ledger.BlockNumber(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, dex.IsFetchError(err))

	_, err = ledger.ReservesByPairs(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = ledger.PairsByIndexRange(context.Background(), common.Address{}, 0, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 3, testutil.CollectAndCount(m.FetchDuration))
}

func TestTimedLedgerPassesThrough(t *testing.T) {
	m := metrics.NewScanMetrics(prometheus.NewRegistry())
	ledger := timedLedger{next: newFakeLedger(), timeout: time.Second, duration: m.FetchDuration}

	block, err := ledger.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), block)

	reserves, err := ledger.ReservesByPairs(context.Background(), []common.Address{poolX})
	require.NoError(t, err)
	require.Len(t, reserves, 1)
	assert.Equal(t, int64(500_000), reserves[0].Reserve1.Int64())
	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
}
