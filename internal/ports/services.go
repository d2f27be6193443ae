package ports

import (
	"context"
	"errors"

	"github.com/teamaster/core/internal/domain/entities"
)

// TeaService interface for tea upsert and lookup operations
type TeaService interface {
	AddTea(ctx context.Context, req AddTeaRequest) AddTeaResult
	GetTea(ctx context.Context, name string) (*entities.Tea, error)
	ListTeas(ctx context.Context) ([]entities.Tea, error)
}

// AuthService interface for API token operations
type AuthService interface {
	IssueToken(subject string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Request/Response Types

type AddTeaRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// ErrorKind classifies why an upsert failed.
type ErrorKind string

const (
	ErrorKindNone         ErrorKind = ""
	ErrorKindNameConflict ErrorKind = "name_conflict"
	ErrorKindIDConflict   ErrorKind = "id_conflict"
	ErrorKindParse        ErrorKind = "parse"
	ErrorKindIO           ErrorKind = "io"
)

// AddTeaResult is either a success carrying the stored tea, or a failure
// carrying its kind and message. Success is the primary signal.
type AddTeaResult struct {
	Success   bool          `json:"success"`
	Tea       *entities.Tea `json:"tea,omitempty"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	Err       error         `json:"-"`
}

// AddTeaOK builds a successful result.
func AddTeaOK(tea entities.Tea) AddTeaResult {
	return AddTeaResult{Success: true, Tea: &tea}
}

// AddTeaFailed builds a failed result, classifying err.
func AddTeaFailed(err error) AddTeaResult {
	return AddTeaResult{
		Success:   false,
		ErrorKind: ClassifyError(err),
		Message:   err.Error(),
		Err:       err,
	}
}

// ClassifyError maps a repository or storage error onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, entities.ErrTeaNameConflict):
		return ErrorKindNameConflict
	case errors.Is(err, entities.ErrTeaIDConflict):
		return ErrorKindIDConflict
	case errors.Is(err, entities.ErrCorruptData):
		return ErrorKindParse
	default:
		return ErrorKindIO
	}
}

type Claims struct {
	Subject string `json:"sub"`
	Issuer  string `json:"iss"`
}
