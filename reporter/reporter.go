package reporter

import (
	"context"
	"time"

	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
)

// Reporter consumes the result of a scan cycle
type Reporter interface {
	Report(ctx context.Context, r *Report) error
}

// Report is the result of one successful scan cycle
type Report struct {
	Cycle         uint64
	Block         uint64
	Opportunities []*arbitrage.Opportunity
	Pools         int
	Markets       int
	CrossedPairs  int
	Duration      time.Duration
}

// Payload is the wire form of a Report. Amounts are decimal strings of base
// token units so no precision is lost.
type Payload struct {
	Cycle         uint64               `json:"cycle"`
	Block         uint64               `json:"block"`
	Pools         int                  `json:"pools"`
	Markets       int                  `json:"markets"`
	CrossedPairs  int                  `json:"crossed_pairs"`
	DurationMs    int64                `json:"duration_ms"`
	Opportunities []OpportunityPayload `json:"opportunities"`
}

type OpportunityPayload struct {
	Token   string      `json:"token"`
	Profit  string      `json:"profit"`
	Volume  string      `json:"volume"`
	BuyFrom PoolPayload `json:"buy_from"`
	SellTo  PoolPayload `json:"sell_to"`
}

type PoolPayload struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Token0   string `json:"token0"`
	Token1   string `json:"token1"`
}

// NewPayload converts r into its wire form
func NewPayload(r *Report) Payload {
	p := Payload{
		Cycle:         r.Cycle,
		Block:         r.Block,
		Pools:         r.Pools,
		Markets:       r.Markets,
		CrossedPairs:  r.CrossedPairs,
		DurationMs:    r.Duration.Milliseconds(),
		Opportunities: make([]OpportunityPayload, 0, len(r.Opportunities)),
	}
	for _, opp := range r.Opportunities {
		p.Opportunities = append(p.Opportunities, newOpportunityPayload(opp))
	}
	return p
}

func newOpportunityPayload(opp *arbitrage.Opportunity) OpportunityPayload {
	return OpportunityPayload{
		Token:   opp.Token.Hex(),
		Profit:  opp.Profit.String(),
		Volume:  opp.Volume.String(),
		BuyFrom: newPoolPayload(opp.BuyFrom),
		SellTo:  newPoolPayload(opp.SellTo),
	}
}

func newPoolPayload(p *uniswap.Pair) PoolPayload {
	return PoolPayload{
		Protocol: p.Protocol(),
		Address:  p.Address().Hex(),
		Token0:   p.Token0().Hex(),
		Token1:   p.Token1().Hex(),
	}
}
