package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plantwatch/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultTable = "dashboard_state"

// DBTX is the subset of *sql.DB and *sql.Tx used by the store.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// KV is a Postgres implementation of storage.KV.
type KV struct {
	db    DBTX
	table string
}

// Option configures the store.
type Option func(*KV)

// WithTable overrides the default table name. Names that are not plain
// lower-case identifiers are ignored.
func WithTable(table string) Option {
	return func(kv *KV) {
		if storage.ValidTableName(table) {
			kv.table = table
		}
	}
}

// Open connects through the pgx stdlib driver and ensures the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*KV, *sql.DB, error) {
	if dsn == "" {
		return nil, nil, errors.New("postgres kv: empty dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	kv := NewKV(db, opts...)
	if err := kv.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return kv, db, nil
}

// NewKV constructs a store over an existing handle.
func NewKV(db DBTX, opts ...Option) *KV {
	kv := &KV{db: db, table: defaultTable}
	for _, opt := range opts {
		opt(kv)
	}
	return kv
}

// EnsureSchema creates the state table when missing.
func (r *KV) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("postgres kv: nil db")
	}
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, r.table)
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Load reads the payload stored under key.
func (r *KV) Load(ctx context.Context, key string) (storage.Loaded, error) {
	if r == nil || r.db == nil {
		return storage.Loaded{}, errors.New("postgres kv: nil db")
	}
	if key == "" {
		return storage.Loaded{}, storage.ErrEmptyKey
	}

	query := fmt.Sprintf(`
SELECT value
FROM %s
WHERE key = $1
LIMIT 1`, r.table)

	var value []byte
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Loaded{State: storage.StateAbsent}, nil
		}
		return storage.Loaded{}, err
	}
	return storage.Loaded{State: storage.StateValid, Data: value}, nil
}

// Save upserts the payload under key.
func (r *KV) Save(ctx context.Context, key string, data []byte) error {
	if r == nil || r.db == nil {
		return errors.New("postgres kv: nil db")
	}
	if key == "" {
		return storage.ErrEmptyKey
	}

	query := fmt.Sprintf(`
INSERT INTO %s (key, value) VALUES ($1, $2)
ON CONFLICT (key)
DO UPDATE SET
	value = EXCLUDED.value,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(ctx, query, key, data)
	return err
}

// Delete removes key.
func (r *KV) Delete(ctx context.Context, key string) error {
	if r == nil || r.db == nil {
		return errors.New("postgres kv: nil db")
	}
	if key == "" {
		return storage.ErrEmptyKey
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.table), key)
	return err
}
