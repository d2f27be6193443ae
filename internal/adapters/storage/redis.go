package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/teamaster/core/internal/domain/entities"
)

const defaultRedisLockTTL = 30 * time.Second

var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisStorage keeps the collection as a JSON string under a single key
type RedisStorage struct {
	client  *redis.Client
	key     string
	lockTTL time.Duration
}

// NewRedisStorage creates a storage for key. A zero lockTTL uses 30s.
func NewRedisStorage(client *redis.Client, key string, lockTTL time.Duration) *RedisStorage {
	if lockTTL <= 0 {
		lockTTL = defaultRedisLockTTL
	}
	return &RedisStorage{client: client, key: key, lockTTL: lockTTL}
}

func (s *RedisStorage) Name() string { return "redis" }

// Ping reports whether the server answers
func (s *RedisStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisStorage) Load(ctx context.Context) ([]entities.Tea, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []entities.Tea{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}

	return decodeTeas(s.key, data)
}

func (s *RedisStorage) Store(ctx context.Context, teas []entities.Tea) error {
	data, err := encodeTeas(teas)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}

	return nil
}

// Lock acquires "<key>:lock" with SET NX and a unique token, retrying until
// ctx is done. Only the holder of the token can release it; an abandoned
// lock expires after the TTL.
func (s *RedisStorage) Lock(ctx context.Context) (func(), error) {
	lockKey := s.key + ":lock"
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", lockKey, ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}

	return func() {
		_ = releaseLockScript.Run(context.Background(), s.client, []string{lockKey}, token).Err()
	}, nil
}
