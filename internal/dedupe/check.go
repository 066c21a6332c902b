package dedupe

import (
	"context"
	"sort"

	"github.com/sells-group/dedupe/internal/model"
)

// Match is an existing record scored against a candidate.
type Match struct {
	Record model.Record `json:"record"`
	Result MatchResult  `json:"result"`
}

// ValidateCandidate rejects a record that cannot be compared by name.
// "!!!" or "  " normalize to nothing and would not even match themselves.
func ValidateCandidate(rec model.Record) error {
	if NormalizeName(rec.Name).Canonical == "" {
		return ErrMissingName
	}
	return nil
}

// CheckResult is the outcome of checking one candidate against a set of
// existing records. Result is the strongest comparison (a zero-score
// distinct result when there is nothing to compare). Matches holds every
// non-distinct comparison, strongest first.
type CheckResult struct {
	Result  MatchResult `json:"result"`
	Matches []Match     `json:"matches"`
}

// CheckDuplicate scores rec against every record in existing. A record
// sharing rec's ID is the candidate itself and is skipped.
func CheckDuplicate(rec model.Record, existing []model.Record, cfg Config) CheckResult {
	fp := NewFingerprint(rec)
	out := CheckResult{
		Result: MatchResult{
			Classification: ClassDistinct,
			Reasons:        []string{},
		},
		Matches: []Match{},
	}

	var best *MatchResult
	for _, e := range existing {
		if rec.ID != "" && e.ID == rec.ID {
			continue
		}
		res := scoreFingerprints(fp, NewFingerprint(e), cfg)
		if best == nil || stronger(res, *best) {
			r := res
			best = &r
		}
		if res.Classification != ClassDistinct {
			out.Matches = append(out.Matches, Match{Record: e, Result: res})
		}
	}
	if best != nil {
		out.Result = *best
	}

	sort.SliceStable(out.Matches, func(i, j int) bool {
		return stronger(out.Matches[i].Result, out.Matches[j].Result)
	})
	return out
}

// stronger reports whether a outranks b: classification first, then score.
func stronger(a, b MatchResult) bool {
	if a.Classification.rank() != b.Classification.rank() {
		return a.Classification.rank() > b.Classification.rank()
	}
	return a.Score > b.Score
}

// ScanReport is the outcome of a collection scan.
type ScanReport struct {
	Pairs  []Pair           `json:"pairs"`
	Groups []DuplicateGroup `json:"groups"`
	Stats  ScanStats        `json:"stats"`
}

// ScanCollection scans records and clusters the resulting pairs.
func ScanCollection(ctx context.Context, records []model.Record, cfg Config, opts ScanOptions) (ScanReport, error) {
	pairs, stats, err := Scan(ctx, records, cfg, opts)
	if err != nil {
		return ScanReport{Stats: stats}, err
	}
	groups, err := Group(pairs)
	if err != nil {
		return ScanReport{Stats: stats}, err
	}
	if pairs == nil {
		pairs = []Pair{}
	}
	return ScanReport{Pairs: pairs, Groups: groups, Stats: stats}, nil
}
