package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
	umath "github.com/michaelpento.lv/arbscan/utils/math"
	"go.uber.org/zap"
)

// ConsoleOptions configures the console reporter
type ConsoleOptions struct {
	Out      io.Writer // defaults to os.Stdout
	Decimals int32     // base token decimals
	Places   int32     // decimal places printed for amounts
	Tracker  *Tracker  // optional
}

// Console prints every opportunity in a human readable block followed by a
// cycle summary, and logs the summary through zap
type Console struct {
	opts   ConsoleOptions
	logger *zap.Logger
}

func NewConsole(opts ConsoleOptions, logger *zap.Logger) *Console {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{opts: opts, logger: logger}
}

func (c *Console) Report(_ context.Context, r *Report) error {
	var b strings.Builder
	for _, opp := range r.Opportunities {
		c.writeOpportunity(&b, r.Cycle, opp)
	}
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "Update for block: %d\n", r.Block)
	fmt.Fprintf(&b, "Profitable pairs found: %d\n", len(r.Opportunities))

	if _, err := io.WriteString(c.opts.Out, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fields := []zap.Field{
		zap.Uint64("cycle", r.Cycle),
		zap.Uint64("block", r.Block),
		zap.Int("pools", r.Pools),
		zap.Int("markets", r.Markets),
		zap.Int("crossed_pairs", r.CrossedPairs),
		zap.Int("opportunities", len(r.Opportunities)),
		zap.Duration("duration", r.Duration),
	}
	if len(r.Opportunities) > 0 {
		fields = append(fields, zap.String("best_profit", umath.FormatUnitsFixed(r.Opportunities[0].Profit, c.opts.Decimals, c.opts.Places)))
	}
	c.logger.Info("Scan cycle complete", fields...)
	return nil
}

func (c *Console) writeOpportunity(b *strings.Builder, cycle uint64, opp *arbitrage.Opportunity) {
	fmt.Fprintf(b, "Profit: %s Volume: %s",
		umath.FormatUnitsFixed(opp.Profit, c.opts.Decimals, c.opts.Places),
		umath.FormatUnitsFixed(opp.Volume, c.opts.Decimals, c.opts.Places))
	if c.opts.Tracker != nil {
		s := c.opts.Tracker.Observe(cycle, opp)
		if s.New() {
			b.WriteString(" (new)")
		} else {
			fmt.Fprintf(b, " (seen for %d cycles)", s.Streak)
		}
	}
	b.WriteString("\n")
	writePool(b, opp.BuyFrom)
	writePool(b, opp.SellTo)
	b.WriteString("\n")
}

func writePool(b *strings.Builder, p *uniswap.Pair) {
	fmt.Fprintf(b, "%s (%s)\n  %s => %s\n", p.Protocol(), p.Address().Hex(), p.Token0().Hex(), p.Token1().Hex())
}
