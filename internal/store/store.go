// Package store persists candidate records for the dedupe engine.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/model"
)

// Store is a record store the engine can scan and merge against, and the
// importer can load into.
type Store interface {
	dedupe.RecordStore

	// CreateRecord inserts rec, assigning an ID when it has none.
	CreateRecord(ctx context.Context, rec model.Record) (*model.Record, error)

	// ImportRecords inserts or replaces recs by ID and returns the count written.
	ImportRecords(ctx context.Context, recs []model.Record) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// recordColumns is the column order shared by the SQL stores.
var recordColumns = []string{
	"id", "scope", "name", "phone", "street", "city", "state",
	"zip_code", "website", "email", "notes", "created_at", "updated_at",
}

var recordColumnList = strings.Join(recordColumns, ", ")

// prepareInsert fills the store-assigned fields of rec.
func prepareInsert(rec model.Record, now time.Time) model.Record {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	return rec
}

func recordValues(rec model.Record) []any {
	return []any{
		rec.ID, rec.Scope, rec.Name, rec.Phone, rec.Street, rec.City, rec.State,
		rec.ZipCode, rec.Website, rec.Email, rec.Notes, rec.CreatedAt, rec.UpdatedAt,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (model.Record, error) {
	var r model.Record
	err := row.Scan(
		&r.ID, &r.Scope, &r.Name, &r.Phone, &r.Street, &r.City, &r.State,
		&r.ZipCode, &r.Website, &r.Email, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}
