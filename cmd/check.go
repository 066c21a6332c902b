package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/model"
)

var (
	checkRecord model.Record
	checkScope  string
	checkJSON   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one record against the stored records for duplicates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if checkRecord.IsEmpty() {
			return eris.New("at least one of --name, --phone, --street, --website or --email is required")
		}
		if err := dedupe.ValidateCandidate(checkRecord); err != nil {
			return eris.New("--name is required and must contain letters or digits")
		}

		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		scope := checkScope
		if scope == "" {
			scope = cfg.Store.Scope
		}

		res, err := env.Engine.CheckDuplicate(cmd.Context(), checkRecord, scope)
		if err != nil {
			return eris.Wrap(err, "check duplicate")
		}

		if checkJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		printCheckResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func printCheckResult(w io.Writer, res dedupe.CheckResult) {
	fmt.Fprintf(w, "Result: %s (score %.2f)\n", res.Result.Classification, res.Result.Score)
	if len(res.Matches) == 0 {
		fmt.Fprintln(w, "No duplicates found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSCORE\tCLASS\tREASONS")
	for _, m := range res.Matches {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n",
			m.Record.ID, m.Record.Name, m.Result.Score, m.Result.Classification,
			strings.Join(m.Result.Reasons, "; "))
	}
	_ = tw.Flush()
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkRecord.Name, "name", "", "business name")
	f.StringVar(&checkRecord.Phone, "phone", "", "phone number")
	f.StringVar(&checkRecord.Street, "street", "", "street address")
	f.StringVar(&checkRecord.City, "city", "", "city")
	f.StringVar(&checkRecord.State, "state", "", "state")
	f.StringVar(&checkRecord.ZipCode, "zip", "", "postal code")
	f.StringVar(&checkRecord.Website, "website", "", "website URL")
	f.StringVar(&checkRecord.Email, "email", "", "email address")
	f.StringVar(&checkScope, "scope", "", "record scope to check against (default from config)")
	f.BoolVar(&checkJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(checkCmd)
}
