package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"plantwatch/internal/storage"

	_ "modernc.org/sqlite"
)

const defaultTable = "dashboard_state"

// KV persists dashboard state in a local SQLite file.
type KV struct {
	db    *sql.DB
	table string
}

// Open creates the database file (and its directory) when missing.
func Open(ctx context.Context, path string) (*KV, error) {
	if path == "" {
		return nil, errors.New("sqlite kv: empty path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite kv: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps the file free of SQLITE_BUSY under concurrent handlers
	db.SetMaxOpenConns(1)

	kv := &KV{db: db, table: defaultTable}
	if err := kv.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// Close releases the database handle.
func (s *KV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *KV) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Load reads the payload stored under key.
func (s *KV) Load(ctx context.Context, key string) (storage.Loaded, error) {
	if key == "" {
		return storage.Loaded{}, storage.ErrEmptyKey
	}
	var value []byte
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ? LIMIT 1`, s.table)
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Loaded{State: storage.StateAbsent}, nil
		}
		return storage.Loaded{}, err
	}
	return storage.Loaded{State: storage.StateValid, Data: value}, nil
}

// Save upserts the payload under key.
func (s *KV) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if data == nil {
		data = []byte{}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at`, s.table)
	_, err := s.db.ExecContext(ctx, query, key, data, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Delete removes key.
func (s *KV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key)
	return err
}
