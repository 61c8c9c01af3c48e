package cmd

import (
	"fmt"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/spf13/cobra"
)

const redacted = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := redactConfig(cfg).Marshal()
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// redactConfig returns a copy of cfg without secrets
func redactConfig(cfg *config.Config) *config.Config {
	out := *cfg
	if out.Raw.Redis.Password != "" {
		out.Raw.Redis.Password = redacted
	}
	return &out
}

func init() {
	rootCmd.AddCommand(configCmd)
}
