package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/pthm-cable/herd/host"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Record is one persisted subtree.
type Record struct {
	Entity host.Entity
	Path   string
	Tree   Tree
}

// Store keeps attribute trees keyed by (entity, path) as JSON blobs, plus a
// small key/value table for simulation-wide values such as the clock.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "herd.db"
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := createSchemas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schemas: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS attributes (
			entity INTEGER NOT NULL,
			path TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (entity, path)
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, q := range schemas {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts one subtree.
func (s *Store) Save(ctx context.Context, e host.Entity, path string, t Tree) error {
	return s.SaveAll(ctx, []Record{{Entity: e, Path: path, Tree: t}})
}

// SaveAll upserts every record in a single transaction.
func (s *Store) SaveAll(ctx context.Context, recs []Record) (retErr error) {
	if len(recs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, r := range recs {
		data, err := json.Marshal(r.Tree)
		if err != nil {
			return fmt.Errorf("encode %d/%s: %w", r.Entity, r.Path, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attributes(entity,path,payload) VALUES(?,?,?) ON CONFLICT(entity,path) DO UPDATE SET payload=excluded.payload`,
			int64(r.Entity), r.Path, data); err != nil {
			return fmt.Errorf("upsert %d/%s: %w", r.Entity, r.Path, err)
		}
	}
	return tx.Commit()
}

// Load returns the subtree stored for (e, path). ok is false when nothing
// has been saved yet.
func (s *Store) Load(ctx context.Context, e host.Entity, path string) (Tree, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM attributes WHERE entity = ? AND path = ?`, int64(e), path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %d/%s: %w", e, path, err)
	}
	t := Tree{}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("decode %d/%s: %w", e, path, err)
	}
	return t, true, nil
}

// LoadAll returns every stored record ordered by entity then path.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity, path, payload FROM attributes ORDER BY entity, path`)
	if err != nil {
		return nil, fmt.Errorf("select attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []Record
	for rows.Next() {
		var (
			id   int64
			r    Record
			data []byte
		)
		if err := rows.Scan(&id, &r.Path, &data); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Entity = host.Entity(id)
		r.Tree = Tree{}
		if err := json.Unmarshal(data, &r.Tree); err != nil {
			return nil, fmt.Errorf("decode %d/%s: %w", id, r.Path, err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Delete drops every subtree stored for e.
func (s *Store) Delete(ctx context.Context, e host.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attributes WHERE entity = ?`, int64(e)); err != nil {
		return fmt.Errorf("delete %d: %w", e, err)
	}
	return nil
}

// Clear drops every stored subtree and meta value.
func (s *Store) Clear(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, q := range []string{`DELETE FROM attributes`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return tx.Commit()
}

// SetMeta stores a simulation-wide float value.
func (s *Store) SetMeta(ctx context.Context, key string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO meta(key,value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
		return fmt.Errorf("upsert meta %s: %w", key, err)
	}
	return nil
}

// Meta returns a value stored with SetMeta.
func (s *Store) Meta(ctx context.Context, key string) (float64, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select meta %s: %w", key, err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse meta %s: %w", key, err)
	}
	return v, true, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
