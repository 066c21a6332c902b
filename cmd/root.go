package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/config"
)

var (
	cfg         *config.Config
	profilePath string
)

var rootCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Duplicate detection and merging for business contact records",
	Long:  "Scores business contact records for duplicates by name, phone, address and domain, clusters duplicate groups, and merges them in SQLite, Postgres, Salesforce or Notion.",
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

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "engine profile YAML file (overrides the engine section of config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
