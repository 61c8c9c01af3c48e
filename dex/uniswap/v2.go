package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/types"
	"golang.org/x/time/rate"
)

// UniswapFlashQuery lookup contract ABI
const flashQueryABIJson = `[{
	"inputs": [
		{"internalType": "contract UniswapV2Factory", "name": "_uniswapFactory", "type": "address"},
		{"internalType": "uint256", "name": "_start", "type": "uint256"},
		{"internalType": "uint256", "name": "_stop", "type": "uint256"}
	],
	"name": "getPairsByIndexRange",
	"outputs": [{"internalType": "address[3][]", "name": "", "type": "address[3][]"}],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [
		{"internalType": "contract IUniswapV2Pair[]", "name": "_pairs", "type": "address[]"}
	],
	"name": "getReservesByPairs",
	"outputs": [{"internalType": "uint256[3][]", "name": "", "type": "uint256[3][]"}],
	"stateMutability": "view",
	"type": "function"
}]`

// ChainClient is the subset of *ethclient.Client used by FlashQuery
type ChainClient interface {
	bind.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
}

// FlashQuery implements dex.Ledger against a deployed UniswapFlashQuery contract
type FlashQuery struct {
	client   ChainClient
	address  common.Address
	contract *bind.BoundContract
	limiter  *rate.Limiter
}

var _ dex.Ledger = (*FlashQuery)(nil)

// NewFlashQuery binds the lookup contract at address. A nil limiter disables rate limiting.
func NewFlashQuery(address common.Address, client ChainClient, limiter *rate.Limiter) (*FlashQuery, error) {
	parsedABI, err := abi.JSON(strings.NewReader(flashQueryABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse flash query ABI: %w", err)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &FlashQuery{
		client:   client,
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, client, nil, nil),
		limiter:  limiter,
	}, nil
}

// Address returns the lookup contract address
func (q *FlashQuery) Address() common.Address {
	return q.address
}

func (q *FlashQuery) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, dex.NewFetchError(method, fmt.Errorf("rate limiter: %w", err))
	}

	var out []interface{}
	if err := q.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, dex.NewFetchError(method, err)
	}
	if len(out) == 0 {
		return nil, dex.NewFetchError(method, fmt.Errorf("empty result"))
	}
	return out, nil
}

// PairsByIndexRange returns the pairs created by factory with index in [start, stop)
func (q *FlashQuery) PairsByIndexRange(ctx context.Context, factory common.Address, start, stop int64) ([]types.PairInfo, error) {
	out, err := q.call(ctx, "getPairsByIndexRange", factory, big.NewInt(start), big.NewInt(stop))
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new([][3]common.Address)).(*[][3]common.Address)
	pairs := make([]types.PairInfo, len(raw))
	for i, entry := range raw {
		pairs[i] = types.PairInfo{
			Token0:  entry[0],
			Token1:  entry[1],
			Address: entry[2],
		}
	}
	return pairs, nil
}

// ReservesByPairs returns the reserves of each pair, in request order
func (q *FlashQuery) ReservesByPairs(ctx context.Context, pairs []common.Address) ([]dex.Reserves, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	out, err := q.call(ctx, "getReservesByPairs", pairs)
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new([][3]*big.Int)).(*[][3]*big.Int)
	if len(raw) != len(pairs) {
		return nil, dex.NewFetchError("getReservesByPairs", fmt.Errorf("got %d reserves for %d pairs", len(raw), len(pairs)))
	}

	reserves := make([]dex.Reserves, len(raw))
	for i, entry := range raw {
		reserves[i] = dex.Reserves{Reserve0: entry[0], Reserve1: entry[1]}
	}
	return reserves, nil
}

// BlockNumber returns the latest block number
func (q *FlashQuery) BlockNumber(ctx context.Context) (uint64, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return 0, dex.NewFetchError("blockNumber", fmt.Errorf("rate limiter: %w", err))
	}
	n, err := q.client.BlockNumber(ctx)
	if err != nil {
		return 0, dex.NewFetchError("blockNumber", err)
	}
	return n, nil
}
