package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/internal/monitoring"
	"github.com/sells-group/dedupe/internal/resilience"
)

// RecordStore is the storage boundary the engine reads candidates from
// and writes merge outcomes to. GetRecord returns (nil, nil) when the id
// is unknown.
type RecordStore interface {
	ListRecords(ctx context.Context, scope string) ([]model.Record, error)
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	UpdateRecord(ctx context.Context, rec model.Record) error
	DeleteRecords(ctx context.Context, ids []string) error
}

// Engine runs duplicate checks, scans and merges against a record store
// under a shared, runtime-updatable Config. Each operation works on a
// snapshot of the config taken when it starts.
type Engine struct {
	store RecordStore
	retry resilience.RetryConfig
	now   func() time.Time

	mu  sync.RWMutex
	cfg Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetry overrides the retry policy used for store writes.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(e *Engine) { e.retry = rc }
}

// WithClock overrides the clock used for merge provenance notes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine over st. cfg must be valid.
func NewEngine(st RecordStore, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		store: st,
		cfg:   cfg,
		retry: resilience.DefaultRetryConfig(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.retry.OnRetry == nil {
		e.retry.OnRetry = resilience.RetryLogger("store", "merge")
	}
	return e, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateConfig applies partial to the current configuration. Unrecognized
// or out-of-range entries are skipped and returned as ignored. An update
// that breaks the threshold ordering is rejected and the configuration is
// left unchanged.
func (e *Engine) UpdateConfig(partial map[string]any) (Config, []string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, ignored, err := e.cfg.ApplyUpdate(partial)
	if err != nil {
		monitoring.ConfigUpdatesTotal.WithLabelValues("rejected").Inc()
		zap.L().Warn("dedupe: config update rejected", zap.Error(err), zap.Strings("ignored", ignored))
		return e.cfg, ignored, err
	}
	e.cfg = next
	monitoring.ConfigUpdatesTotal.WithLabelValues("applied").Inc()
	zap.L().Info("dedupe: config updated",
		zap.String("config", next.String()),
		zap.Strings("ignored", ignored),
	)
	return next, ignored, nil
}

// CheckDuplicate scores rec against every record in scope.
func (e *Engine) CheckDuplicate(ctx context.Context, rec model.Record, scope string) (CheckResult, error) {
	if err := ValidateCandidate(rec); err != nil {
		return CheckResult{}, err
	}
	cfg := e.Config()

	existing, err := e.store.ListRecords(ctx, scope)
	if err != nil {
		return CheckResult{}, eris.Wrap(err, "dedupe: list records")
	}

	res := CheckDuplicate(rec, existing, cfg)
	monitoring.ComparisonsTotal.WithLabelValues("check").Add(float64(len(existing)))
	monitoring.PairsTotal.WithLabelValues("check", string(res.Result.Classification)).Inc()

	zap.L().Debug("dedupe: check complete",
		zap.String("name", rec.Name),
		zap.String("scope", scope),
		zap.Int("candidates", len(existing)),
		zap.Int("matches", len(res.Matches)),
		zap.String("classification", string(res.Result.Classification)),
		zap.Float64("score", res.Result.Score),
	)
	return res, nil
}

// ScanCollection scans every record in scope and clusters the duplicates.
func (e *Engine) ScanCollection(ctx context.Context, scope string, opts ScanOptions) (ScanReport, error) {
	cfg := e.Config()

	records, err := e.store.ListRecords(ctx, scope)
	if err != nil {
		return ScanReport{}, eris.Wrap(err, "dedupe: list records")
	}

	report, err := ScanCollection(ctx, records, cfg, opts)
	if err != nil {
		return report, err
	}

	monitoring.ComparisonsTotal.WithLabelValues("scan").Add(float64(report.Stats.Comparisons))
	monitoring.ScanDuration.WithLabelValues(string(report.Stats.Blocking)).Observe(report.Stats.Duration.Seconds())
	monitoring.GroupsTotal.Add(float64(len(report.Groups)))
	for _, p := range report.Pairs {
		monitoring.PairsTotal.WithLabelValues("scan", string(p.Result.Classification)).Inc()
	}

	zap.L().Info("dedupe: scan complete",
		zap.String("scope", scope),
		zap.Int("records", report.Stats.Records),
		zap.Int64("comparisons", report.Stats.Comparisons),
		zap.Int("pairs", len(report.Pairs)),
		zap.Int("groups", len(report.Groups)),
		zap.Duration("duration", report.Stats.Duration),
	)
	return report, nil
}

// MergeResult is the outcome of a merge.
type MergeResult struct {
	Record       model.Record `json:"record"`
	FilledFields []string     `json:"filled_fields"`
	MergedIDs    []string     `json:"merged_ids"`
	MissingIDs   []string     `json:"missing_ids,omitempty"`
}

// Merge fills the empty fields of the keep record from the records in
// mergeIDs (first non-empty value wins, in the given order), persists it
// and deletes the merged records. Unknown merge ids are skipped and
// reported in MissingIDs; the keep id itself is never deleted.
func (e *Engine) Merge(ctx context.Context, keepID string, mergeIDs []string) (MergeResult, error) {
	if keepID == "" {
		monitoring.MergesTotal.WithLabelValues("invalid").Inc()
		return MergeResult{}, eris.Wrap(ErrMissingID, "dedupe: merge keep record")
	}

	keep, err := e.store.GetRecord(ctx, keepID)
	if err != nil {
		monitoring.MergesTotal.WithLabelValues("error").Inc()
		return MergeResult{}, eris.Wrapf(err, "dedupe: get record %s", keepID)
	}
	if keep == nil {
		monitoring.MergesTotal.WithLabelValues("not_found").Inc()
		return MergeResult{}, eris.Wrapf(ErrNotFound, "dedupe: merge keep record %s", keepID)
	}

	res := MergeResult{
		Record:       *keep,
		FilledFields: []string{},
		MergedIDs:    []string{},
	}

	seen := map[string]bool{keepID: true}
	var merges []model.Record
	for _, id := range mergeIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		rec, err := e.store.GetRecord(ctx, id)
		if err != nil {
			monitoring.MergesTotal.WithLabelValues("error").Inc()
			return MergeResult{}, eris.Wrapf(err, "dedupe: get record %s", id)
		}
		if rec == nil {
			res.MissingIDs = append(res.MissingIDs, id)
			continue
		}
		merges = append(merges, *rec)
		res.MergedIDs = append(res.MergedIDs, id)
	}

	if len(merges) == 0 {
		monitoring.MergesTotal.WithLabelValues("noop").Inc()
		zap.L().Info("dedupe: nothing to merge",
			zap.String("keep_id", keepID),
			zap.Strings("missing_ids", res.MissingIDs),
		)
		return res, nil
	}

	merged, filled := MergeRecords(*keep, merges, e.now())
	res.Record = merged
	res.FilledFields = filled

	if err := resilience.Do(ctx, e.retry, func(ctx context.Context) error {
		return e.store.UpdateRecord(ctx, merged)
	}); err != nil {
		monitoring.MergesTotal.WithLabelValues("error").Inc()
		return MergeResult{}, eris.Wrapf(err, "dedupe: update record %s", keepID)
	}

	if err := resilience.Do(ctx, e.retry, func(ctx context.Context) error {
		return e.store.DeleteRecords(ctx, res.MergedIDs)
	}); err != nil {
		monitoring.MergesTotal.WithLabelValues("error").Inc()
		return MergeResult{}, eris.Wrap(err, "dedupe: delete merged records")
	}

	monitoring.MergesTotal.WithLabelValues("merged").Inc()
	zap.L().Info("dedupe: records merged",
		zap.String("keep_id", keepID),
		zap.Strings("merged_ids", res.MergedIDs),
		zap.Strings("filled", filled),
		zap.Strings("missing_ids", res.MissingIDs),
	)
	return res, nil
}
