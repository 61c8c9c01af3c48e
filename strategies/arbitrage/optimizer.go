package arbitrage

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	umath "github.com/michaelpento.lv/arbscan/utils/math"
)

// Opportunity is the best trade found for one crossed pair
type Opportunity struct {
	Profit  *big.Int
	Volume  *big.Int
	Token   common.Address
	BuyFrom *uniswap.Pair
	SellTo  *uniswap.Pair
}

// Searcher picks the trade size for a crossed pair
type Searcher interface {
	Search(pair CrossedPair, token, base common.Address, volumes []*big.Int) (*Opportunity, error)
}

// Profit buys token with size base on BuyFrom, sells the proceeds on SellTo
// and returns the base surplus.
func Profit(pair CrossedPair, token, base common.Address, size *big.Int) (*big.Int, error) {
	tokensOut, err := pair.BuyFrom.AmountOut(base, token, size)
	if err != nil {
		return nil, err
	}
	proceeds, err := pair.SellTo.AmountOut(token, base, tokensOut)
	if err != nil {
		return nil, err
	}
	return proceeds.Sub(proceeds, size), nil
}

// isQuoteError reports whether err only means the size cannot be traded
func isQuoteError(err error) bool {
	return errors.Is(err, dex.ErrInsufficientLiquidity) || errors.Is(err, dex.ErrInvalidAmount)
}

// GridSearch walks the ascending volumes and stops at the first size that
// loses value, after trying the midpoint between it and the last improving
// size once. This is a heuristic: a coarse grid can miss the optimum.
type GridSearch struct{}

// Search implements Searcher
func (GridSearch) Search(pair CrossedPair, token, base common.Address, volumes []*big.Int) (*Opportunity, error) {
	var best *Opportunity
	for _, size := range volumes {
		profit, err := Profit(pair, token, base, size)
		if err != nil {
			if isQuoteError(err) {
				continue
			}
			return nil, err
		}

		if best != nil && profit.Cmp(best.Profit) < 0 {
			trySize := umath.Midpoint(size, best.Volume)
			tryProfit, err := Profit(pair, token, base, trySize)
			switch {
			case err == nil:
				if tryProfit.Cmp(best.Profit) > 0 {
					best = newOpportunity(pair, token, trySize, tryProfit)
				}
			case !isQuoteError(err):
				return nil, err
			}
			break
		}
		best = newOpportunity(pair, token, new(big.Int).Set(size), profit)
	}
	return best, nil
}

// TernarySearch refines the best grid point with an integer ternary search
// over the bracket formed by its grid neighbours. Profit is concave in size
// for constant-product pools, so the bracket contains the optimum.
type TernarySearch struct {
	// Tolerance stops the search once the bracket is at most this wide
	Tolerance int64
	// MaxIterations bounds the number of bracket reductions
	MaxIterations int
}

// NewTernarySearch returns a TernarySearch with default bounds
func NewTernarySearch() TernarySearch {
	return TernarySearch{Tolerance: 3, MaxIterations: 64}
}

// Search implements Searcher. The result is never worse than GridSearch.
func (s TernarySearch) Search(pair CrossedPair, token, base common.Address, volumes []*big.Int) (*Opportunity, error) {
	best, err := GridSearch{}.Search(pair, token, base, volumes)
	if err != nil || best == nil {
		return best, err
	}

	top := -1
	var topProfit *big.Int
	for i, size := range volumes {
		profit, err := s.profitOrNil(pair, token, base, size)
		if err != nil {
			return nil, err
		}
		if profit != nil && (topProfit == nil || profit.Cmp(topProfit) > 0) {
			top, topProfit = i, profit
		}
	}
	if top < 0 {
		return best, nil
	}

	lo := new(big.Int)
	if top > 0 {
		lo.Set(volumes[top-1])
	}
	hi := new(big.Int).Set(volumes[top])
	if top+1 < len(volumes) {
		hi.Set(volumes[top+1])
	}

	tolerance := big.NewInt(s.Tolerance)
	if tolerance.Sign() <= 0 {
		tolerance.SetInt64(1)
	}
	iterations := s.MaxIterations
	if iterations <= 0 {
		iterations = 64
	}

	three := big.NewInt(3)
	width := new(big.Int)
	for i := 0; i < iterations; i++ {
		width.Sub(hi, lo)
		if width.Cmp(tolerance) <= 0 {
			break
		}
		third := new(big.Int).Quo(width, three)
		m1 := new(big.Int).Add(lo, third)
		m2 := new(big.Int).Sub(hi, third)

		p1, err := s.profitOrNil(pair, token, base, m1)
		if err != nil {
			return nil, err
		}
		p2, err := s.profitOrNil(pair, token, base, m2)
		if err != nil {
			return nil, err
		}

		if less(p1, p2) {
			lo = m1
		} else {
			hi = m2
		}
	}

	for _, size := range []*big.Int{lo, umath.Midpoint(lo, hi), hi} {
		profit, err := s.profitOrNil(pair, token, base, size)
		if err != nil {
			return nil, err
		}
		if profit != nil && profit.Cmp(best.Profit) > 0 {
			best = newOpportunity(pair, token, new(big.Int).Set(size), profit)
		}
	}
	return best, nil
}

// profitOrNil returns a nil profit for sizes that cannot be traded
func (TernarySearch) profitOrNil(pair CrossedPair, token, base common.Address, size *big.Int) (*big.Int, error) {
	profit, err := Profit(pair, token, base, size)
	if err != nil {
		if isQuoteError(err) {
			return nil, nil
		}
		return nil, err
	}
	return profit, nil
}

// less orders a nil profit below every value
func less(a, b *big.Int) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Cmp(b) < 0
}

func newOpportunity(pair CrossedPair, token common.Address, size, profit *big.Int) *Opportunity {
	return &Opportunity{
		Profit:  profit,
		Volume:  size,
		Token:   token,
		BuyFrom: pair.BuyFrom,
		SellTo:  pair.SellTo,
	}
}
