package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/api"
	"github.com/sells-group/emailgen/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "emailgen",
	Short:   "Business email pattern generator",
	Version: api.Version,
	Long: `Generates and ranks likely business email addresses for leads from name,
company domain, industry and size.

  serve      HTTP API for single leads and batches, with run tracking
  enrich     enrich a CSV or XLSX lead file (local path or URL)
  generate   print the ranked candidates for one lead as JSON
  runs       list, show and summarize recorded runs

Configuration comes from ./config.yaml and EMAILGEN_* environment variables.`,
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
