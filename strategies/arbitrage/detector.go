package arbitrage

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	umath "github.com/michaelpento.lv/arbscan/utils/math"
	"go.uber.org/zap"
)

// CrossedPair is an ordered pair of pools where buying on BuyFrom and selling
// on SellTo is profitable at the probe volume
type CrossedPair struct {
	SellTo  *uniswap.Pair
	BuyFrom *uniswap.Pair
}

type pricedPair struct {
	pair           *uniswap.Pair
	buyTokenPrice  *big.Int
	sellTokenPrice *big.Int
}

// FindCrossedPairs quotes every pool at probe units of base and returns each
// ordered pair (sellTo, buyFrom) where buyFrom sells more token for probe base
// than sellTo needs to pay probe base back. Pools that cannot be quoted at the
// probe size are skipped.
func FindCrossedPairs(token, base common.Address, pairs []*uniswap.Pair, probe *big.Int) ([]CrossedPair, error) {
	priced := make([]pricedPair, 0, len(pairs))
	for _, pair := range pairs {
		buy, err := pair.AmountIn(token, base, probe)
		if err != nil {
			if isQuoteError(err) {
				continue
			}
			return nil, err
		}
		sell, err := pair.AmountOut(base, token, probe)
		if err != nil {
			if isQuoteError(err) {
				continue
			}
			return nil, err
		}
		priced = append(priced, pricedPair{pair: pair, buyTokenPrice: buy, sellTokenPrice: sell})
	}

	var crossed []CrossedPair
	for _, p := range priced {
		for _, q := range priced {
			if p.pair == q.pair {
				continue
			}
			if q.sellTokenPrice.Cmp(p.buyTokenPrice) > 0 {
				crossed = append(crossed, CrossedPair{SellTo: p.pair, BuyFrom: q.pair})
			}
		}
	}
	return crossed, nil
}

// DetectorConfig holds the evaluation parameters
type DetectorConfig struct {
	Base         common.Address
	MinLiquidity *big.Int
	MinProfit    *big.Int
	ProbeVolume  *big.Int
	TestVolumes  []*big.Int
	Searcher     Searcher
	// BestPerToken keeps only the most profitable opportunity of each token
	BestPerToken bool
}

// Evaluation is the outcome of one pass over the markets
type Evaluation struct {
	Opportunities []*Opportunity
	CrossedPairs  int
	Errors        int
}

// Detector finds arbitrage opportunities across crossed pools
type Detector struct {
	cfg    DetectorConfig
	logger *zap.Logger
}

// NewDetector creates a new arbitrage detector. A nil Searcher defaults to GridSearch.
func NewDetector(cfg DetectorConfig, logger *zap.Logger) (*Detector, error) {
	if cfg.ProbeVolume == nil || cfg.ProbeVolume.Sign() <= 0 {
		return nil, fmt.Errorf("probe volume must be positive")
	}
	if cfg.MinLiquidity == nil || cfg.MinLiquidity.Sign() < 0 {
		return nil, fmt.Errorf("min liquidity must be non-negative")
	}
	if !umath.IsAscending(cfg.TestVolumes) {
		return nil, fmt.Errorf("test volumes must be strictly ascending")
	}
	if cfg.MinProfit == nil {
		cfg.MinProfit = new(big.Int)
	}
	if cfg.Searcher == nil {
		cfg.Searcher = GridSearch{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, logger: logger}, nil
}

// Group builds the markets the detector evaluates from a flat pool list
func (d *Detector) Group(pairs []*uniswap.Pair) Markets {
	return GroupByToken(pairs, d.cfg.Base, d.cfg.MinLiquidity)
}

// FindOpportunities returns the opportunities whose profit exceeds the
// minimum, most profitable first
func (d *Detector) FindOpportunities(markets Markets) []*Opportunity {
	return d.Evaluate(markets).Opportunities
}

// Evaluate runs crossed pair detection and the size search on every market.
// Pricing bugs are logged and counted; they never stop the pass.
func (d *Detector) Evaluate(markets Markets) *Evaluation {
	eval := &Evaluation{}
	for _, token := range markets.Tokens() {
		crossed, err := FindCrossedPairs(token, d.cfg.Base, markets[token], d.cfg.ProbeVolume)
		if err != nil {
			eval.Errors++
			d.logger.Error("Failed to price market",
				zap.String("token", token.Hex()),
				zap.Error(err))
			continue
		}
		eval.CrossedPairs += len(crossed)

		var best *Opportunity
		for _, pair := range crossed {
			opp, err := d.cfg.Searcher.Search(pair, token, d.cfg.Base, d.cfg.TestVolumes)
			if err != nil {
				eval.Errors++
				d.logger.Error("Failed to search trade size",
					zap.String("token", token.Hex()),
					zap.Stringer("buy_from", pair.BuyFrom),
					zap.Stringer("sell_to", pair.SellTo),
					zap.Error(err))
				continue
			}
			if opp == nil || opp.Profit.Cmp(d.cfg.MinProfit) <= 0 {
				continue
			}

			if !d.cfg.BestPerToken {
				eval.Opportunities = append(eval.Opportunities, opp)
				continue
			}
			if best == nil || opp.Profit.Cmp(best.Profit) > 0 {
				best = opp
			}
		}
		if best != nil {
			eval.Opportunities = append(eval.Opportunities, best)
		}
	}

	sort.SliceStable(eval.Opportunities, func(i, j int) bool {
		return eval.Opportunities[i].Profit.Cmp(eval.Opportunities[j].Profit) > 0
	})
	return eval
}
