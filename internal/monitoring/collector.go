package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dedupe/internal/model"
)

// Snapshot holds a point-in-time view of the record collection.
type Snapshot struct {
	Scope   string `json:"scope"`
	Records int    `json:"records"`

	// Field coverage: records carrying a non-empty value.
	WithPhone   int `json:"with_phone"`
	WithAddress int `json:"with_address"`
	WithWebsite int `json:"with_website"`
	WithEmail   int `json:"with_email"`

	// MissingID counts records that cannot be clustered or merged.
	MissingID int `json:"missing_id"`

	CollectedAt time.Time `json:"collected_at"`
}

// RecordLister is the read side of a record store.
type RecordLister interface {
	ListRecords(ctx context.Context, scope string) ([]model.Record, error)
}

// Collector gathers snapshots from the record store.
type Collector struct {
	store RecordLister
}

// NewCollector creates a new snapshot collector.
func NewCollector(st RecordLister) *Collector {
	return &Collector{store: st}
}

// Collect reads every record in scope and summarizes field coverage.
func (c *Collector) Collect(ctx context.Context, scope string) (*Snapshot, error) {
	records, err := c.store.ListRecords(ctx, scope)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list records")
	}

	snap := &Snapshot{
		Scope:       scope,
		Records:     len(records),
		CollectedAt: time.Now().UTC(),
	}
	for _, r := range records {
		if r.ID == "" {
			snap.MissingID++
		}
		if present(r.Phone) {
			snap.WithPhone++
		}
		if present(r.Street) {
			snap.WithAddress++
		}
		if present(r.Website) {
			snap.WithWebsite++
		}
		if present(r.Email) {
			snap.WithEmail++
		}
	}

	StoreRecords.WithLabelValues(scopeLabel(scope)).Set(float64(snap.Records))
	return snap, nil
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "all"
	}
	return scope
}
