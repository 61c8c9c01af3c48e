package cmd

import (
	"context"
	"fmt"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/utils"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	chain   string
	debug   bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "arbscan",
	Short: "A CLI scanner for cross-DEX arbitrage between constant product pools",
	Long: `A CLI scanner that discovers Uniswap V2 style pools trading a base token,
refreshes their reserves every cycle and reports the most profitable
buy-low/sell-high trades between pools of the same token.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, overrides the chain preset)")
	rootCmd.PersistentFlags().StringVar(&chain, "chain", "", fmt.Sprintf("chain preset %v (default from $%s)", config.Chains(), config.EnvChain))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
}

func initConfig() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "failed to load .env: %v\n", err)
	}
	utils.InitLogger(utils.LogOptions{Debug: debug, File: logFile})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
