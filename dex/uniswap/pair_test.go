package uniswap

import (
	"math/big"
	"math/rand"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270")
	tokenB = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	tokenC = common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
)

func newTestPair(t *testing.T, reserve0, reserve1 int64) *Pair {
	t.Helper()
	pair, err := NewPair("Quickswap", common.HexToAddress("0x1000"), tokenA, tokenB, 997, 1000)
	require.NoError(t, err)
	pair.UpdateReserves(big.NewInt(reserve0), big.NewInt(reserve1))
	return pair
}

func TestNewPairValidation(t *testing.T) {
	_, err := NewPair("x", common.HexToAddress("0x1"), tokenA, tokenA, 997, 1000)
	assert.Error(t, err)

	_, err = NewPair("x", common.HexToAddress("0x1"), tokenA, tokenB, 0, 1000)
	assert.Error(t, err)

	_, err = NewPair("x", common.HexToAddress("0x1"), tokenA, tokenB, 1001, 1000)
	assert.Error(t, err)

	pair, err := NewPair("x", common.HexToAddress("0x1"), tokenA, tokenB, 1000, 1000)
	require.NoError(t, err)
	r0, r1 := pair.Reserves()
	assert.Equal(t, 0, r0.Sign())
	assert.Equal(t, 0, r1.Sign())
}

func TestReserveOf(t *testing.T) {
	pair := newTestPair(t, 1_000_000, 500_000)

	r, err := pair.ReserveOf(tokenA)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), r.Int64())

	// identifiers parsed from differently cased hex are the same address
	r, err = pair.ReserveOf(common.HexToAddress("0x2791bca1f2de4661ed88a30c99a7a9449aa84174"))
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), r.Int64())

	_, err = pair.ReserveOf(tokenC)
	assert.ErrorIs(t, err, dex.ErrUnknownAsset)
}

func TestGetAmountOut(t *testing.T) {
	pair := newTestPair(t, 1_000_000, 500_000)

	out, err := pair.AmountOut(tokenA, tokenB, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(498), out.Int64())

	out, err = pair.AmountOut(tokenA, tokenB, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Sign())

	_, err = pair.AmountOut(tokenA, tokenB, big.NewInt(-1))
	assert.ErrorIs(t, err, dex.ErrInvalidAmount)

	_, err = pair.AmountOut(tokenA, tokenC, big.NewInt(1000))
	assert.ErrorIs(t, err, dex.ErrUnknownAsset)

	_, err = pair.AmountOut(tokenA, tokenA, big.NewInt(1000))
	assert.ErrorIs(t, err, dex.ErrUnknownAsset)
}

func TestGetAmountIn(t *testing.T) {
	pair := newTestPair(t, 1_000_000, 500_000)

	in, err := pair.AmountIn(tokenA, tokenB, big.NewInt(498))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), in.Int64())

	_, err = pair.AmountIn(tokenA, tokenB, big.NewInt(500_000))
	assert.ErrorIs(t, err, dex.ErrInsufficientLiquidity)

	_, err = pair.AmountIn(tokenA, tokenB, big.NewInt(600_000))
	assert.ErrorIs(t, err, dex.ErrInsufficientLiquidity)
}

func TestZeroReserves(t *testing.T) {
	pair := newTestPair(t, 0, 500_000)

	_, err := pair.AmountOut(tokenA, tokenB, big.NewInt(1000))
	assert.ErrorIs(t, err, dex.ErrInsufficientLiquidity)

	_, err = pair.AmountIn(tokenB, tokenA, big.NewInt(1))
	assert.ErrorIs(t, err, dex.ErrInsufficientLiquidity)
}

func TestAmountOutBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fees := [][2]int64{{997, 1000}, {998, 1000}, {9975, 10000}, {1, 1}}

	for i := 0; i < 500; i++ {
		fee := fees[i%len(fees)]
		pair, err := NewPair("x", common.HexToAddress("0x1"), tokenA, tokenB, fee[0], fee[1])
		require.NoError(t, err)

		reserveIn := new(big.Int).Mul(big.NewInt(rng.Int63n(1e12)+1), big.NewInt(1e9))
		reserveOut := new(big.Int).Mul(big.NewInt(rng.Int63n(1e12)+1), big.NewInt(1e9))
		amountIn := new(big.Int).Mul(big.NewInt(rng.Int63n(1e12)), big.NewInt(1e6))
		larger := new(big.Int).Add(amountIn, big.NewInt(rng.Int63n(1e15)))

		out, err := pair.GetAmountOut(amountIn, reserveIn, reserveOut)
		require.NoError(t, err)

		// out <= amountIn * fee/precision * reserveOut / reserveIn
		lhs := new(big.Int).Mul(out, reserveIn)
		lhs.Mul(lhs, big.NewInt(fee[1]))
		rhs := new(big.Int).Mul(amountIn, big.NewInt(fee[0]))
		rhs.Mul(rhs, reserveOut)
		assert.True(t, lhs.Cmp(rhs) <= 0, "fee-free bound violated for in=%s", amountIn)

		outLarger, err := pair.GetAmountOut(larger, reserveIn, reserveOut)
		require.NoError(t, err)
		assert.True(t, outLarger.Cmp(out) >= 0, "amountOut decreased from %s to %s", amountIn, larger)
	}
}

func TestAmountInRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		pair, err := NewPair("x", common.HexToAddress("0x1"), tokenA, tokenB, 997, 1000)
		require.NoError(t, err)

		reserveIn := new(big.Int).Mul(big.NewInt(rng.Int63n(1e12)+1), big.NewInt(1e9))
		reserveOut := new(big.Int).Mul(big.NewInt(rng.Int63n(1e12)+2), big.NewInt(1e9))
		amountOut := new(big.Int).Rand(rng, reserveOut)

		amountIn, err := pair.GetAmountIn(amountOut, reserveIn, reserveOut)
		require.NoError(t, err)

		got, err := pair.GetAmountOut(amountIn, reserveIn, reserveOut)
		require.NoError(t, err)
		assert.True(t, got.Cmp(amountOut) >= 0, "round trip under-delivers: want %s got %s", amountOut, got)
	}
}

func TestUpdateReservesCopiesInputs(t *testing.T) {
	pair := newTestPair(t, 1, 1)

	r0 := big.NewInt(100)
	r1 := big.NewInt(200)
	pair.UpdateReserves(r0, r1)
	r0.SetInt64(0)

	got0, got1 := pair.Reserves()
	assert.Equal(t, int64(100), got0.Int64())
	assert.Equal(t, int64(200), got1.Int64())

	// returned values are copies too
	got0.SetInt64(5)
	again, _ := pair.ReserveOf(tokenA)
	assert.Equal(t, int64(100), again.Int64())
}

func TestConcurrentQuotesSeeConsistentSnapshot(t *testing.T) {
	pair := newTestPair(t, 1_000, 1_000)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 1000; i++ {
			pair.UpdateReserves(big.NewInt(i*1000), big.NewInt(i*1000))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r0, r1 := pair.Reserves()
			assert.Equal(t, 0, r0.Cmp(r1))
		}
	}()
	wg.Wait()
}

func TestOtherToken(t *testing.T) {
	pair := newTestPair(t, 1, 1)

	other, err := pair.OtherToken(tokenA)
	require.NoError(t, err)
	assert.Equal(t, tokenB, other)

	_, err = pair.OtherToken(tokenC)
	assert.ErrorIs(t, err, dex.ErrUnknownAsset)
	assert.Equal(t, "Quickswap(0x0000000000000000000000000000000000001000)", pair.String())
}
