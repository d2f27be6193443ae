package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/database"
)

// PostgresStorage snapshots the collection as a JSONB row in tea_collections.
// The table is created by the 000001 migration.
type PostgresStorage struct {
	db         *database.DB
	collection string
}

// NewPostgresStorage creates a storage for the named collection row
func NewPostgresStorage(db *database.DB, collection string) *PostgresStorage {
	if collection == "" {
		collection = defaultCollection
	}
	return &PostgresStorage{db: db, collection: collection}
}

func (s *PostgresStorage) Name() string { return "postgres" }

// Ping reports whether the database answers
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *PostgresStorage) Load(ctx context.Context) ([]entities.Tea, error) {
	query := `SELECT payload FROM tea_collections WHERE name = $1`

	var payload []byte
	err := s.db.DB.GetContext(ctx, &payload, query, s.collection)
	if errors.Is(err, sql.ErrNoRows) {
		return []entities.Tea{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tea collection: %w", err)
	}

	return decodeTeas("tea_collections/"+s.collection, payload)
}

func (s *PostgresStorage) Store(ctx context.Context, teas []entities.Tea) error {
	data, err := encodeTeas(teas)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tea_collections (name, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = NOW()`

	// Sent as text: lib/pq would encode []byte as bytea.
	if _, err := s.db.DB.ExecContext(ctx, query, s.collection, string(data)); err != nil {
		return fmt.Errorf("store tea collection: %w", err)
	}

	return nil
}

// Lock holds a session advisory lock keyed by the collection name on a
// dedicated connection.
func (s *PostgresStorage) Lock(ctx context.Context) (func(), error) {
	conn, err := s.db.DB.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	key := s.lockKey()
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}

	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, key)
		_ = conn.Close()
	}, nil
}

func (s *PostgresStorage) lockKey() int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("teamaster:" + s.collection))
	return int64(h.Sum64())
}
