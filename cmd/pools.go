package cmd

import (
	"fmt"
	"io"
	"math/big"

	"github.com/michaelpento.lv/arbscan/cmd/bot"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
	"github.com/michaelpento.lv/arbscan/utils"
	umath "github.com/michaelpento.lv/arbscan/utils/math"
	"github.com/spf13/cobra"
)

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "Discover pools, refresh reserves once and print the markets",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ledger, client, err := dialLedger(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer client.Close()

		scanner, err := bot.New(cfg, ledger, nil, nil, log)
		if err != nil {
			return fmt.Errorf("failed to create scanner: %w", err)
		}
		if err := scanner.Initialize(ctx); err != nil {
			return err
		}
		if err := scanner.Refresh(ctx); err != nil {
			return err
		}

		return printMarkets(cmd.OutOrStdout(), scanner.Markets(), cfg.BaseDecimals, cfg.Report.DisplayPlaces)
	},
}

// printMarkets writes every token with its pools and their base reserves,
// the deepest pool first in the header line
func printMarkets(w io.Writer, markets arbitrage.Markets, decimals, places int32) error {
	for _, token := range markets.Tokens() {
		pairs := markets[token]
		deepest := new(big.Int)
		for _, pair := range pairs {
			other, _ := pair.OtherToken(token)
			reserve, err := pair.ReserveOf(other)
			if err != nil {
				return err
			}
			deepest = umath.Max(deepest, reserve)
		}

		if _, err := fmt.Fprintf(w, "%s: %d pools, deepest %s\n", token.Hex(), len(pairs),
			umath.FormatUnitsFixed(deepest, decimals, places)); err != nil {
			return err
		}
		for _, pair := range pairs {
			r0, r1 := pair.Reserves()
			if _, err := fmt.Fprintf(w, "  %s reserves %s / %s\n", pair, r0, r1); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d tokens, %d pools\n", len(markets), markets.PairCount())
	return err
}

func init() {
	rootCmd.AddCommand(poolsCmd)
}
