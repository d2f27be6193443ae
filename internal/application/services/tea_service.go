package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/logger"
	"github.com/teamaster/core/internal/infrastructure/metrics"
	"github.com/teamaster/core/internal/ports"
)

// Upsert outcomes recorded in metrics
const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
)

// TeaService handles tea upserts and lookups
type TeaService struct {
	teaRepo ports.TeaRepository
	logger  *logger.Logger
	metrics *metrics.Metrics

	// mu makes the lookup-then-save sequence of AddTea atomic in-process.
	mu sync.Mutex
}

// NewTeaService creates a new tea service. m may be nil.
func NewTeaService(teaRepo ports.TeaRepository, logger *logger.Logger, m *metrics.Metrics) *TeaService {
	return &TeaService{
		teaRepo: teaRepo,
		logger:  logger,
		metrics: m,
	}
}

// AddTea creates a tea or updates the description of the tea with the same
// name. It never returns an error: failures come back as a result with
// Success false.
func (s *TeaService) AddTea(ctx context.Context, req ports.AddTeaRequest) ports.AddTeaResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	tea, outcome, err := s.buildTea(ctx, req)
	if err != nil {
		return s.failed(req, err)
	}

	if err := s.teaRepo.SaveTea(ctx, tea); err != nil {
		return s.failed(req, err)
	}

	s.metrics.ObserveUpsert(outcome)
	s.logger.Infow("Tea saved", "tea_id", tea.ID, "name", tea.Name, "created", outcome == outcomeCreated)

	return ports.AddTeaOK(tea)
}

// buildTea resolves the record to save: the existing tea with a new
// description, or a new tea with a freshly generated id.
func (s *TeaService) buildTea(ctx context.Context, req ports.AddTeaRequest) (entities.Tea, string, error) {
	existing, err := s.teaRepo.GetTeaByName(ctx, req.Name)
	switch {
	case err == nil:
		return existing.WithDescription(req.Description), outcomeUpdated, nil
	case !errors.Is(err, entities.ErrTeaNotFound):
		return entities.Tea{}, "", err
	}

	id, err := s.teaRepo.GenerateNewTeaID(ctx)
	if err != nil {
		return entities.Tea{}, "", err
	}

	return entities.Tea{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	}, outcomeCreated, nil
}

func (s *TeaService) failed(req ports.AddTeaRequest, err error) ports.AddTeaResult {
	result := ports.AddTeaFailed(err)
	s.metrics.ObserveUpsert(string(result.ErrorKind))
	s.logger.Warnw("Failed to save tea", "name", req.Name, "error_kind", result.ErrorKind, "error", err)
	return result
}

// GetTea retrieves a tea by its exact name
func (s *TeaService) GetTea(ctx context.Context, name string) (*entities.Tea, error) {
	tea, err := s.teaRepo.GetTeaByName(ctx, name)
	if err != nil {
		if errors.Is(err, entities.ErrTeaNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get tea: %w", err)
	}

	return tea, nil
}

// ListTeas returns every stored tea
func (s *TeaService) ListTeas(ctx context.Context) ([]entities.Tea, error) {
	teas, err := s.teaRepo.ListTeas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teas: %w", err)
	}

	return teas, nil
}
