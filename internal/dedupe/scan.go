package dedupe

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dedupe/internal/model"
)

// ScanOptions tunes a pairwise scan.
type ScanOptions struct {
	// Blocking restricts comparisons to records sharing a block key.
	// Defaults to BlockingNone.
	Blocking BlockingStrategy `json:"blocking,omitempty"`
	// Concurrency is the number of outer rows scored in parallel.
	// Values <= 1 scan sequentially.
	Concurrency int `json:"concurrency,omitempty"`
}

// Pair is a scored pair of records that was not classified distinct.
type Pair struct {
	A      model.Record `json:"a"`
	B      model.Record `json:"b"`
	Result MatchResult  `json:"result"`
}

// ScanStats describes the work a scan performed.
type ScanStats struct {
	Records     int              `json:"records"`
	Comparisons int64            `json:"comparisons"`
	Blocks      int              `json:"blocks"`
	Pairs       int              `json:"pairs"`
	Blocking    BlockingStrategy `json:"blocking"`
	Duration    time.Duration    `json:"duration_ns"`
}

// Scan scores every unordered pair of records once and returns the pairs
// that are not distinct, ordered by (i, j) input position. Cancellation is
// checked between outer rows.
func Scan(ctx context.Context, records []model.Record, cfg Config, opts ScanOptions) ([]Pair, ScanStats, error) {
	start := time.Now()
	if opts.Blocking == "" {
		opts.Blocking = BlockingNone
	}

	fps := make([]Fingerprint, len(records))
	for i, r := range records {
		fps[i] = NewFingerprint(r)
	}
	members, blockOf := buildBlocks(opts.Blocking, fps)

	stats := ScanStats{
		Records:  len(records),
		Blocks:   len(members),
		Blocking: opts.Blocking,
	}

	var comparisons atomic.Int64
	rows := make([][]Pair, len(records))

	scanRow := func(i int) {
		var row []Pair
		var n int64
		for _, j := range members[blockOf[i]] {
			if j <= i {
				continue
			}
			n++
			res := scoreFingerprints(fps[i], fps[j], cfg)
			if res.Classification == ClassDistinct {
				continue
			}
			row = append(row, Pair{A: records[i], B: records[j], Result: res})
		}
		rows[i] = row
		comparisons.Add(n)
	}

	if opts.Concurrency <= 1 {
		for i := range records {
			if err := ctx.Err(); err != nil {
				return nil, stats, eris.Wrap(err, "dedupe: scan cancelled")
			}
			scanRow(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := range records {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				scanRow(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, stats, eris.Wrap(err, "dedupe: scan cancelled")
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, eris.Wrap(err, "dedupe: scan cancelled")
		}
	}

	var pairs []Pair
	for _, row := range rows {
		pairs = append(pairs, row...)
	}

	stats.Comparisons = comparisons.Load()
	stats.Pairs = len(pairs)
	stats.Duration = time.Since(start)

	zap.L().Debug("dedupe: scan complete",
		zap.Int("records", stats.Records),
		zap.Int64("comparisons", stats.Comparisons),
		zap.Int("blocks", stats.Blocks),
		zap.Int("pairs", stats.Pairs),
		zap.String("blocking", string(stats.Blocking)),
		zap.Duration("duration", stats.Duration),
	)

	return pairs, stats, nil
}
