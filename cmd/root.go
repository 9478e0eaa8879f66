package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "metal-lca",
	Short: "Metal life cycle assessment calculator",
	Long:  "Resolves stage inputs (user, AI-predicted, fallback), computes per-stage environmental footprints, classifies severities and aggregates project totals.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
