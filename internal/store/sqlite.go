package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dedupe/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	scope      TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	street     TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	zip_code   TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_scope ON records(scope);
`

// Migrate creates the records table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRecord(ctx context.Context, rec model.Record) (*model.Record, error) {
	rec = prepareInsert(rec, time.Now().UTC())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumnList+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordValues(rec)...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert record")
	}
	return &rec, nil
}

// ImportRecords upserts recs by ID in a single transaction.
func (s *SQLiteStore) ImportRecords(ctx context.Context, recs []model.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (`+recordColumnList+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			scope = excluded.scope, name = excluded.name, phone = excluded.phone,
			street = excluded.street, city = excluded.city, state = excluded.state,
			zip_code = excluded.zip_code, website = excluded.website, email = excluded.email,
			notes = excluded.notes, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, recordValues(prepareInsert(rec, now))...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import record %q", rec.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return len(recs), nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, scope string) ([]model.Record, error) {
	query := `SELECT ` + recordColumnList + ` FROM records`
	var args []any
	if scope != "" {
		query += ` WHERE scope = ?`
		args = append(args, scope)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumnList+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return &r, nil
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, rec model.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET scope = ?, name = ?, phone = ?, street = ?, city = ?, state = ?,
			zip_code = ?, website = ?, email = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		rec.Scope, rec.Name, rec.Phone, rec.Street, rec.City, rec.State,
		rec.ZipCode, rec.Website, rec.Email, rec.Notes, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update record %s", rec.ID)
	}
	return checkRowsAffected(res, "record", rec.ID)
}

func (s *SQLiteStore) DeleteRecords(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id IN (`+placeholders+`)`, args...)
	return eris.Wrap(err, "sqlite: delete records")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
