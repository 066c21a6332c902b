package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dedupe/internal/importer"
)

var (
	importFile      string
	importScope     string
	importBatchSize int
	importDryRun    bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from a CSV, TSV or XLSX file into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importFile == "" {
			return eris.New("--file is required")
		}

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		scope := importScope
		if scope == "" {
			scope = cfg.Store.Scope
		}

		res, err := importer.ImportFile(ctx, env.Store, importFile, importer.Options{
			Scope:     scope,
			BatchSize: importBatchSize,
			DryRun:    importDryRun,
		})
		if err != nil {
			return eris.Wrap(err, "import file")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d of %d rows (%d skipped) from %s\n", res.Imported, res.Rows, res.Skipped, importFile)
		if len(res.Unmapped) > 0 {
			fmt.Fprintf(out, "Ignored columns: %s\n", listOrNone(res.Unmapped))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv, .tsv or .xlsx file (required)")
	importCmd.Flags().StringVar(&importScope, "scope", "", "scope for rows without one (default from config)")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 500, "records written per batch")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and map the file without writing")
	rootCmd.AddCommand(importCmd)
}
