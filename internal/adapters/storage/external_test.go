package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/database"
)

// Backends needing a server only run when the matching variable is set:
//
//	TEAMASTER_TEST_POSTGRES_DSN=postgres://postgres@localhost/teamaster?sslmode=disable
//	TEAMASTER_TEST_REDIS_ADDR=localhost:6379

func newTestPostgresStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	dsn := os.Getenv("TEAMASTER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEAMASTER_TEST_POSTGRES_DSN not set")
	}

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tea_collections (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL DEFAULT '[]'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	require.NoError(t, err)

	collection := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM tea_collections WHERE name = $1`, collection)
	})

	return NewPostgresStorage(&database.DB{DB: db}, collection)
}

func newTestRedisStorage(t *testing.T) *RedisStorage {
	t.Helper()
	addr := os.Getenv("TEAMASTER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEAMASTER_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	key := "teamaster:test:" + uuid.NewString()
	t.Cleanup(func() {
		_ = client.Del(context.Background(), key, key+":lock").Err()
	})

	return NewRedisStorage(client, key, 5*time.Second)
}

func TestExternalStorages(t *testing.T) {
	backends := map[string]func(t *testing.T) storageUnderTest{
		"postgres": func(t *testing.T) storageUnderTest { return newTestPostgresStorage(t) },
		"redis":    func(t *testing.T) storageUnderTest { return newTestRedisStorage(t) },
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			s := build(t)
			ctx := context.Background()

			require.NoError(t, s.Ping(ctx))

			teas, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, teas)

			want := []entities.Tea{
				{ID: 1, Name: "Green Tea", Description: "Grassy"},
				{ID: 2, Name: "Black Tea", Description: "Malty"},
			}
			require.NoError(t, s.Store(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			unlock, err := s.Lock(ctx)
			require.NoError(t, err)

			waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
			defer cancel()
			_, err = s.Lock(waitCtx)
			assert.Error(t, err)

			unlock()
			unlock2, err := s.Lock(ctx)
			require.NoError(t, err)
			unlock2()
		})
	}
}

type storageUnderTest interface {
	Load(ctx context.Context) ([]entities.Tea, error)
	Store(ctx context.Context, teas []entities.Tea) error
	Lock(ctx context.Context) (func(), error)
	Ping(ctx context.Context) error
}
