package testutils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	"github.com/stretchr/testify/require"
)

// Polygon token addresses used across tests
var (
	WMATIC = common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270")
	USDC   = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	WETH   = common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
)

// CreatePool creates a 0.3% fee pool at the given short address with its reserves set
func CreatePool(t *testing.T, protocol string, address int64, token0, token1 common.Address, reserve0, reserve1 int64) *uniswap.Pair {
	t.Helper()

	pair, err := uniswap.NewPair(protocol, common.BigToAddress(big.NewInt(address)), token0, token1, 997, 1000)
	require.NoError(t, err)

	pair.UpdateReserves(big.NewInt(reserve0), big.NewInt(reserve1))
	return pair
}

// Amounts converts values into big integers
func Amounts(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}
