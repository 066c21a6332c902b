// Package report writes scan results for manual review.
package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/model"
)

var groupHeader = []string{
	"Group", "Record ID", "Name", "Phone", "Street", "City", "State",
	"Zip Code", "Website", "Email", "Pairs", "Max Score", "Min Score",
}

var pairHeader = []string{
	"Record A", "Name A", "Record B", "Name B", "Score", "Classification", "Escalated", "Reasons",
}

// WriteXLSX saves report to path as a workbook with a "Groups" sheet (one
// row per grouped record) and a "Pairs" sheet (one row per scored pair).
func WriteXLSX(path string, report dedupe.ScanReport) error {
	file := xlsx.NewFile()

	groups, err := file.AddSheet("Groups")
	if err != nil {
		return eris.Wrap(err, "report: add groups sheet")
	}
	addRow(groups, groupHeader...)
	for i, g := range report.Groups {
		for _, r := range g.Records {
			cells := []string{strconv.Itoa(i + 1)}
			cells = append(cells, recordCells(r)...)
			cells = append(cells, strconv.Itoa(g.PairCount), formatScore(g.MaxScore), formatScore(g.MinScore))
			addRow(groups, cells...)
		}
	}

	pairs, err := file.AddSheet("Pairs")
	if err != nil {
		return eris.Wrap(err, "report: add pairs sheet")
	}
	addRow(pairs, pairHeader...)
	for _, p := range report.Pairs {
		addRow(pairs,
			p.A.ID, p.A.Name, p.B.ID, p.B.Name,
			formatScore(p.Result.Score),
			string(p.Result.Classification),
			strconv.FormatBool(p.Result.Escalated),
			strings.Join(p.Result.Reasons, "; "),
		)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func recordCells(r model.Record) []string {
	return []string{r.ID, r.Name, r.Phone, r.Street, r.City, r.State, r.ZipCode, r.Website, r.Email}
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
