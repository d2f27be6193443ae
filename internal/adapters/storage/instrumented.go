package storage

import (
	"context"
	"time"

	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/logger"
	"github.com/teamaster/core/internal/infrastructure/metrics"
	"github.com/teamaster/core/internal/ports"
)

// InstrumentedStorage records metrics and debug logs around another storage.
// Lock is forwarded when the wrapped storage supports it.
type InstrumentedStorage struct {
	next    ports.TeaStorage
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// Instrument wraps next. Either m or log may be nil.
func Instrument(next ports.TeaStorage, m *metrics.Metrics, log *logger.Logger) *InstrumentedStorage {
	if log == nil {
		log = logger.NewNop()
	}
	return &InstrumentedStorage{next: next, metrics: m, logger: log}
}

func (s *InstrumentedStorage) Name() string { return s.next.Name() }

// Unwrap returns the wrapped storage
func (s *InstrumentedStorage) Unwrap() ports.TeaStorage { return s.next }

func (s *InstrumentedStorage) Load(ctx context.Context) ([]entities.Tea, error) {
	start := time.Now()
	teas, err := s.next.Load(ctx)
	s.observe("load", start, err)
	return teas, err
}

func (s *InstrumentedStorage) Store(ctx context.Context, teas []entities.Tea) error {
	start := time.Now()
	err := s.next.Store(ctx, teas)
	s.observe("store", start, err)
	return err
}

func (s *InstrumentedStorage) Lock(ctx context.Context) (func(), error) {
	locker, ok := s.next.(ports.StorageLocker)
	if !ok {
		return func() {}, nil
	}

	start := time.Now()
	unlock, err := locker.Lock(ctx)
	s.observe("lock", start, err)
	return unlock, err
}

// Ping forwards to the wrapped storage when it can be pinged
func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	pinger, ok := s.next.(ports.StoragePinger)
	if !ok {
		return nil
	}

	start := time.Now()
	err := pinger.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

func (s *InstrumentedStorage) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.metrics.ObserveStoreOperation(s.next.Name(), op, elapsed, err)
	s.logger.LogStoreOperation(s.next.Name(), op, elapsed, err)
}
