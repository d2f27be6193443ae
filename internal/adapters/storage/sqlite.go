package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teamaster/core/internal/domain/entities"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultCollection = "teas"

// SQLiteStorage snapshots the collection as one JSON blob in an embedded
// SQLite database.
type SQLiteStorage struct {
	db         *sql.DB
	path       string
	collection string
}

// NewSQLiteStorage opens (or creates) the database at path
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create collections table: %w", err)
	}

	return &SQLiteStorage{db: db, path: path, collection: defaultCollection}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Load(ctx context.Context) ([]entities.Tea, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM collections WHERE name = ?`, s.collection).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []entities.Tea{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select collection: %w", err)
	}

	return decodeTeas(s.path, payload)
}

func (s *SQLiteStorage) Store(ctx context.Context, teas []entities.Tea) error {
	data, err := encodeTeas(teas)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO collections(name, payload) VALUES(?, ?) ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		s.collection, data,
	); err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}

	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLiteStorage) DB() *sql.DB { return s.db }

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
