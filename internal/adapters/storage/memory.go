package storage

import (
	"context"
	"sync"

	"github.com/teamaster/core/internal/domain/entities"
)

// MemoryStorage keeps the collection in process memory
type MemoryStorage struct {
	mu       sync.Mutex
	teas     []entities.Tea
	writes   int
	loadErr  error
	storeErr error
	pingErr  error
}

// NewMemoryStorage creates a memory storage seeded with initial records
func NewMemoryStorage(initial ...entities.Tea) *MemoryStorage {
	return &MemoryStorage{teas: cloneTeas(initial)}
}

func (s *MemoryStorage) Name() string { return "memory" }

func (s *MemoryStorage) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

func (s *MemoryStorage) Load(ctx context.Context) ([]entities.Tea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneTeas(s.teas), nil
}

func (s *MemoryStorage) Store(ctx context.Context, teas []entities.Tea) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeErr != nil {
		return s.storeErr
	}
	s.teas = cloneTeas(teas)
	s.writes++
	return nil
}

// Writes returns how many times Store succeeded
func (s *MemoryStorage) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FailLoad makes every following Load return err. Nil clears it.
func (s *MemoryStorage) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailStore makes every following Store return err. Nil clears it.
func (s *MemoryStorage) FailStore(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeErr = err
}

// FailPing makes every following Ping return err. Nil clears it.
func (s *MemoryStorage) FailPing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}
