package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/ports"
)

// TeaRepositoryImpl implements the TeaRepository interface on top of a
// whole-collection storage. Every call loads a fresh snapshot; nothing is
// cached between calls.
type TeaRepositoryImpl struct {
	storage     ports.TeaStorage
	now         func() time.Time
	idStrategy  string
	lockTimeout time.Duration

	// mu serializes load-check-store cycles within the process.
	mu sync.Mutex
}

// Option configures a TeaRepositoryImpl
type Option func(*TeaRepositoryImpl)

// WithClock sets the time source used for timestamp ids
func WithClock(now func() time.Time) Option {
	return func(r *TeaRepositoryImpl) {
		r.now = now
	}
}

// WithIDStrategy selects config.IDStrategyTimestamp or config.IDStrategySequence
func WithIDStrategy(strategy string) Option {
	return func(r *TeaRepositoryImpl) {
		r.idStrategy = strategy
	}
}

// WithLockTimeout bounds how long SaveTea waits for the storage lock
func WithLockTimeout(d time.Duration) Option {
	return func(r *TeaRepositoryImpl) {
		if d > 0 {
			r.lockTimeout = d
		}
	}
}

// NewTeaRepository creates a new tea repository
func NewTeaRepository(storage ports.TeaStorage, opts ...Option) *TeaRepositoryImpl {
	r := &TeaRepositoryImpl{
		storage:     storage,
		now:         time.Now,
		idStrategy:  config.IDStrategyTimestamp,
		lockTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetTeaByName returns the first tea whose name matches exactly, or
// entities.ErrTeaNotFound.
func (r *TeaRepositoryImpl) GetTeaByName(ctx context.Context, name string) (*entities.Tea, error) {
	teas, err := r.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tea by name: %w", err)
	}

	for _, tea := range teas {
		if tea.Name == name {
			return &tea, nil
		}
	}

	return nil, entities.ErrTeaNotFound
}

// SaveTea validates tea against one snapshot of the collection and writes
// the collection back: a record with the same id is replaced in place,
// otherwise tea is appended. Conflicts are returned as
// *entities.ConflictError and nothing is written.
func (r *TeaRepositoryImpl) SaveTea(ctx context.Context, tea entities.Tea) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lockStorage(ctx)
	if err != nil {
		return fmt.Errorf("save tea: %w", err)
	}
	defer unlock()

	teas, err := r.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("save tea: %w", err)
	}

	if slices.ContainsFunc(teas, func(t entities.Tea) bool { return t.Name == tea.Name && t.ID != tea.ID }) {
		return entities.NewNameConflict(tea.Name)
	}
	if slices.ContainsFunc(teas, func(t entities.Tea) bool { return t.ID == tea.ID && t.Name != tea.Name }) {
		return entities.NewIDConflict(tea.ID)
	}

	if i := slices.IndexFunc(teas, func(t entities.Tea) bool { return t.ID == tea.ID }); i >= 0 {
		teas[i] = tea
	} else {
		teas = append(teas, tea)
	}

	if err := r.storage.Store(ctx, teas); err != nil {
		return fmt.Errorf("save tea: %w", err)
	}

	return nil
}

// GenerateNewTeaID returns an id for a new record. The timestamp strategy
// returns Unix milliseconds and does not guard against two calls within the
// same millisecond; the sequence strategy returns the highest stored id + 1.
func (r *TeaRepositoryImpl) GenerateNewTeaID(ctx context.Context) (int64, error) {
	if r.idStrategy != config.IDStrategySequence {
		return r.now().UnixMilli(), nil
	}

	teas, err := r.storage.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("generate tea id: %w", err)
	}

	var maxID int64
	for _, tea := range teas {
		maxID = max(maxID, tea.ID)
	}
	return maxID + 1, nil
}

// ListTeas returns the collection in stored order
func (r *TeaRepositoryImpl) ListTeas(ctx context.Context) ([]entities.Tea, error) {
	teas, err := r.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teas: %w", err)
	}
	return teas, nil
}

func (r *TeaRepositoryImpl) lockStorage(ctx context.Context) (func(), error) {
	locker, ok := r.storage.(ports.StorageLocker)
	if !ok {
		return func() {}, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	return locker.Lock(lockCtx)
}
