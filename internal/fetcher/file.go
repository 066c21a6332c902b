package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// StreamFile streams the rows of a .csv, .tsv or .xlsx file by extension.
func StreamFile(ctx context.Context, path string) (<-chan []string, <-chan error, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		rows, errs := StreamXLSX(ctx, path, XLSXOptions{})
		return rows, errs, nil
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		opts := CSVOptions{LazyQuotes: true, TrimSpace: true}
		if ext == ".tsv" {
			opts.Delimiter = '\t'
		}
		rows, errs := StreamCSV(ctx, f, opts)
		return rows, closeWhenDone(f, errs), nil
	default:
		return nil, nil, eris.Errorf("fetcher: unsupported file type %q", ext)
	}
}

// closeWhenDone forwards errs and closes f once the producer finishes.
func closeWhenDone(f *os.File, errs <-chan error) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		defer f.Close() //nolint:errcheck
		for err := range errs {
			out <- err
		}
	}()
	return out
}
