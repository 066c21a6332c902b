package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dedupe/internal/db"
	"github.com/sells-group/dedupe/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller owns its lifecycle.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_records_scope ON records(scope);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRecord(ctx context.Context, rec model.Record) (*model.Record, error) {
	rec = prepareInsert(rec, time.Now().UTC())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (`+recordColumnList+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		recordValues(rec)...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert record")
	}
	return &rec, nil
}

// ImportRecords bulk-upserts recs by ID through a COPY-loaded temp table.
func (s *PostgresStore) ImportRecords(ctx context.Context, recs []model.Record) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		rows[i] = recordValues(prepareInsert(rec, now))
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "records",
		Columns:      recordColumns,
		ConflictKeys: []string{"id"},
		UpdateCols: []string{
			"scope", "name", "phone", "street", "city", "state",
			"zip_code", "website", "email", "notes", "updated_at",
		},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import records")
	}
	return int(n), nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, scope string) ([]model.Record, error) {
	query := `SELECT ` + recordColumnList + ` FROM records`
	var args []any
	if scope != "" {
		query += ` WHERE scope = $1`
		args = append(args, scope)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumnList+` FROM records WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return &r, nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, rec model.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET scope = $1, name = $2, phone = $3, street = $4, city = $5, state = $6,
			zip_code = $7, website = $8, email = $9, notes = $10, updated_at = $11
		WHERE id = $12`,
		rec.Scope, rec.Name, rec.Phone, rec.Street, rec.City, rec.State,
		rec.ZipCode, rec.Website, rec.Email, rec.Notes, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update record %s", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("record not found: %s", rec.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteRecords(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = ANY($1)`, ids)
	return eris.Wrap(err, "postgres: delete records")
}
