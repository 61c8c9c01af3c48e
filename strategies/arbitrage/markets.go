package arbitrage

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
)

// Markets groups pairs by the token they trade against the base token
type Markets map[common.Address][]*uniswap.Pair

// GroupByToken keeps the pairs whose base reserve is strictly greater than
// minLiquidity and groups them by their other token. Pairs that do not trade
// the base token, or trade it on both sides, are dropped.
func GroupByToken(pairs []*uniswap.Pair, base common.Address, minLiquidity *big.Int) Markets {
	markets := make(Markets)
	for _, pair := range pairs {
		var token common.Address
		switch base {
		case pair.Token0():
			token = pair.Token1()
		case pair.Token1():
			token = pair.Token0()
		default:
			continue
		}

		reserve, err := pair.ReserveOf(base)
		if err != nil || reserve.Cmp(minLiquidity) <= 0 {
			continue
		}
		markets[token] = append(markets[token], pair)
	}
	return markets
}

// Tokens returns the group keys in address order
func (m Markets) Tokens() []common.Address {
	tokens := make([]common.Address, 0, len(m))
	for token := range m {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return bytes.Compare(tokens[i][:], tokens[j][:]) < 0
	})
	return tokens
}

// PairCount returns the number of pairs across all groups
func (m Markets) PairCount() int {
	n := 0
	for _, pairs := range m {
		n += len(pairs)
	}
	return n
}
