package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	mergeKeepID string
	mergeIDs    []string
	mergeJSON   bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge duplicate records into the record to keep",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if mergeKeepID == "" {
			return eris.New("--keep is required")
		}
		if len(mergeIDs) == 0 {
			return eris.New("--merge is required")
		}

		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Engine.Merge(cmd.Context(), mergeKeepID, mergeIDs)
		if err != nil {
			return eris.Wrap(err, "merge records")
		}

		if mergeJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Kept %s (%s)\n", res.Record.ID, res.Record.Name)
		fmt.Fprintf(out, "Merged: %s\n", listOrNone(res.MergedIDs))
		fmt.Fprintf(out, "Filled: %s\n", listOrNone(res.FilledFields))
		if len(res.MissingIDs) > 0 {
			fmt.Fprintf(out, "Not found: %s\n", strings.Join(res.MissingIDs, ", "))
		}
		return nil
	},
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func init() {
	mergeCmd.Flags().StringVar(&mergeKeepID, "keep", "", "ID of the record to keep (required)")
	mergeCmd.Flags().StringSliceVar(&mergeIDs, "merge", nil, "IDs of the records to merge into it, comma separated (required)")
	mergeCmd.Flags().BoolVar(&mergeJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(mergeCmd)
}
