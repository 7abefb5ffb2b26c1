package assetstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLite keeps every store in a single database file
type SQLite struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLite opens (or creates) the database at dsn.
// An empty dsn opens a private in-memory database.
func NewSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection: in-memory databases are per connection and sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS stores (
			name TEXT PRIMARY KEY,
			created_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS assets (
			store TEXT NOT NULL,
			key TEXT NOT NULL,
			stored_at INTEGER,
			bytes BLOB,
			PRIMARY KEY (store, key)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	return &SQLite{db: db, writeMutex: &sync.Mutex{}}, nil
}

func (s *SQLite) Open(ctx context.Context, name string) (Bucket, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO stores (name, created_at) VALUES (?, ?)",
		name, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", name, err)
	}

	return &sqliteBucket{name: name, store: s}, nil
}

func (s *SQLite) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM stores ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, name string) (bool, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE store = ?", name); err != nil {
		return false, fmt.Errorf("delete assets of %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM stores WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("delete store %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteBucket struct {
	name  string
	store *SQLite
}

func (b *sqliteBucket) Name() string {
	return b.name
}

func (b *sqliteBucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := b.store.db.QueryRowContext(ctx,
		"SELECT bytes FROM assets WHERE store = ? AND key = ?", b.name, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s from %s: %w", key, b.name, err)
	}
	return data, true, nil
}

func (b *sqliteBucket) Put(ctx context.Context, key string, value []byte) error {
	b.store.writeMutex.Lock()
	defer b.store.writeMutex.Unlock()

	_, err := b.store.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO assets (store, key, stored_at, bytes) VALUES (?, ?, ?, ?)",
		b.name, key, time.Now().Unix(), value)
	if err != nil {
		return fmt.Errorf("put %s into %s: %w", key, b.name, err)
	}
	return nil
}
