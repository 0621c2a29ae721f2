package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "civic-cli",
	Short: "Crime and poverty analysis over Syracuse open data",
	Long:  "Joins geocoded crime incidents to their nearest census tract, correlates tract crime counts with poverty, and serves the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
