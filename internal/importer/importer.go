// Package importer loads record files into a record store, mapping column
// headers onto record fields.
package importer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/fetcher"
	"github.com/sells-group/dedupe/internal/model"
)

const defaultBatchSize = 500

// Writer receives imported records.
type Writer interface {
	ImportRecords(ctx context.Context, recs []model.Record) (int, error)
}

// Options configures an import.
type Options struct {
	Scope     string // applied to rows without a scope column value
	BatchSize int    // default 500
	DryRun    bool   // parse and map only
}

// Result summarizes an import.
type Result struct {
	Rows     int               `json:"rows"`
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Columns  map[string]string `json:"columns"` // field -> source header
	Unmapped []string          `json:"unmapped,omitempty"`
}

// headerAliases maps normalized header text to record fields.
var headerAliases = map[string]string{
	"id":             "id",
	"record id":      "id",
	"scope":          "scope",
	"list":           "scope",
	"segment":        "scope",
	"name":           "name",
	"company":        "name",
	"company name":   "name",
	"business name":  "name",
	"account name":   "name",
	"organization":   "name",
	"phone":          "phone",
	"phone number":   "phone",
	"telephone":      "phone",
	"tel":            "phone",
	"main phone":     "phone",
	"street":         "street",
	"address":        "street",
	"address 1":      "street",
	"address line 1": "street",
	"street address": "street",
	"billing street": "street",
	"city":           "city",
	"town":           "city",
	"billing city":   "city",
	"state":          "state",
	"province":       "state",
	"region":         "state",
	"billing state":  "state",
	"zip":            "zip_code",
	"zip code":       "zip_code",
	"zipcode":        "zip_code",
	"postal code":    "zip_code",
	"postcode":       "zip_code",
	"website":        "website",
	"web site":       "website",
	"url":            "website",
	"domain":         "website",
	"homepage":       "website",
	"email":          "email",
	"e mail":         "email",
	"email address":  "email",
	"notes":          "notes",
	"description":    "notes",
}

// MapHeader resolves each header column to a record field. The first
// column wins when two map to the same field. Unrecognized headers are
// returned in order.
func MapHeader(header []string) (map[int]string, []string) {
	cols := make(map[int]string, len(header))
	taken := make(map[string]bool, len(header))
	var unmapped []string
	for i, h := range header {
		field, ok := headerAliases[normalizeHeader(h)]
		if !ok || taken[field] {
			if strings.TrimSpace(h) != "" {
				unmapped = append(unmapped, h)
			}
			continue
		}
		taken[field] = true
		cols[i] = field
	}
	return cols, unmapped
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// RowToRecord builds a record from row using a column map from MapHeader.
func RowToRecord(row []string, cols map[int]string) model.Record {
	var rec model.Record
	for i, field := range cols {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		switch field {
		case "id":
			rec.ID = v
		case "scope":
			rec.Scope = v
		case "notes":
			rec.Notes = v
		default:
			rec.SetField(field, v)
		}
	}
	return rec
}

// ImportFile streams path (.csv, .tsv or .xlsx) into w.
func ImportFile(ctx context.Context, w Writer, path string, opts Options) (*Result, error) {
	rows, errs, err := fetcher.StreamFile(ctx, path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open file")
	}
	res, err := Import(ctx, w, rows, errs, opts)
	if err != nil {
		return res, eris.Wrapf(err, "importer: import %s", path)
	}
	return res, nil
}

// Import reads a header row followed by data rows and writes the mapped
// records to w in batches. Rows with no contact fields are skipped.
func Import(ctx context.Context, w Writer, rows <-chan []string, errs <-chan error, opts Options) (*Result, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	res := &Result{Columns: map[string]string{}}
	var cols map[int]string
	batch := make([]model.Record, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 || opts.DryRun {
			res.Imported += len(batch)
			batch = batch[:0]
			return nil
		}
		n, err := w.ImportRecords(ctx, batch)
		res.Imported += n
		batch = batch[:0]
		if err != nil {
			return eris.Wrap(err, "importer: write batch")
		}
		return nil
	}

	for row := range rows {
		if cols == nil {
			var header []string
			cols, header = MapHeader(row)
			res.Unmapped = header
			for i, field := range cols {
				res.Columns[field] = row[i]
			}
			if _, ok := res.Columns["name"]; !ok {
				drain(rows)
				return res, eris.New("importer: no name column in header")
			}
			continue
		}

		res.Rows++
		rec := RowToRecord(row, cols)
		if rec.IsEmpty() {
			res.Skipped++
			continue
		}
		if rec.Scope == "" {
			rec.Scope = opts.Scope
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				drain(rows)
				return res, err
			}
		}
	}

	for err := range errs {
		if err != nil {
			return res, err
		}
	}
	if cols == nil {
		return res, eris.New("importer: empty file")
	}
	if err := flush(); err != nil {
		return res, err
	}

	zap.L().Info("importer: import complete",
		zap.Int("rows", res.Rows),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Strings("unmapped", res.Unmapped),
		zap.Bool("dry_run", opts.DryRun),
	)
	return res, nil
}

func drain(rows <-chan []string) {
	for range rows {
	}
}
