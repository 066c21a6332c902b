package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/report"
)

var (
	scanScope       string
	scanBlocking    string
	scanConcurrency int
	scanJSON        bool
	scanXLSX        string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan stored records for duplicate groups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := scanOptions(cmd)
		if err != nil {
			return err
		}

		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		scope := scanScope
		if scope == "" {
			scope = cfg.Store.Scope
		}

		rep, err := env.Engine.ScanCollection(cmd.Context(), scope, opts)
		if err != nil {
			return eris.Wrap(err, "scan collection")
		}

		if scanXLSX != "" {
			if err := report.WriteXLSX(scanXLSX, rep); err != nil {
				return err
			}
			zap.L().Info("scan report written", zap.String("path", scanXLSX))
		}

		if scanJSON {
			return writeJSON(cmd.OutOrStdout(), rep)
		}
		printScanReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

// scanOptions resolves the scan flags against the configured defaults.
func scanOptions(cmd *cobra.Command) (dedupe.ScanOptions, error) {
	blocking := cfg.Scan.Blocking
	if cmd.Flags().Changed("blocking") {
		blocking = scanBlocking
	}
	b, err := dedupe.ParseBlockingStrategy(blocking)
	if err != nil {
		return dedupe.ScanOptions{}, err
	}

	concurrency := cfg.Scan.Concurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency = scanConcurrency
	}
	return dedupe.ScanOptions{Blocking: b, Concurrency: concurrency}, nil
}

func printScanReport(w io.Writer, rep dedupe.ScanReport) {
	s := rep.Stats
	fmt.Fprintf(w, "Scanned %d records: %d comparisons in %d blocks (%s), %d pairs, %d groups in %s\n",
		s.Records, s.Comparisons, s.Blocks, s.Blocking, s.Pairs, len(rep.Groups), s.Duration)
	if len(rep.Groups) == 0 {
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "GROUP\tID\tNAME\tPHONE\tWEBSITE\tSCORES")
	for i, g := range rep.Groups {
		for _, r := range g.Records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f-%.2f\n",
				i+1, r.ID, r.Name, r.Phone, r.Website, g.MinScore, g.MaxScore)
		}
	}
	_ = tw.Flush()
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanScope, "scope", "", "record scope to scan (default from config)")
	f.StringVar(&scanBlocking, "blocking", "none", "blocking strategy: none, postal_prefix, name_prefix, phone")
	f.IntVar(&scanConcurrency, "concurrency", 0, "rows scored in parallel (default from config)")
	f.BoolVar(&scanJSON, "json", false, "print the full report as JSON")
	f.StringVar(&scanXLSX, "xlsx", "", "also write groups and pairs to this .xlsx file")
	rootCmd.AddCommand(scanCmd)
}
