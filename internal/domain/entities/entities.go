package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrTeaNotFound     = errors.New("tea not found")
	ErrTeaNameConflict = errors.New("tea name conflict")
	ErrTeaIDConflict   = errors.New("tea id conflict")
	ErrCorruptData     = errors.New("tea data is not valid JSON")
)

// Tea represents a stored tea record. Both ID and Name are unique across
// the collection.
type Tea struct {
	ID          int64  `json:"id" db:"id" yaml:"id"`
	Name        string `json:"name" db:"name" yaml:"name"`
	Description string `json:"description" db:"description" yaml:"description"`
}

// WithDescription returns a copy of the tea with its description replaced.
// ID and Name are kept so the result replaces the original record in place.
func (t Tea) WithDescription(description string) Tea {
	t.Description = description
	return t
}

// ConflictError is returned when a save would break the id or name
// uniqueness of the collection.
type ConflictError struct {
	// Kind is ErrTeaNameConflict or ErrTeaIDConflict.
	Kind error
	Name string
	ID   int64
}

// NewNameConflict reports another record already using name.
func NewNameConflict(name string) *ConflictError {
	return &ConflictError{Kind: ErrTeaNameConflict, Name: name}
}

// NewIDConflict reports another record already using id.
func NewIDConflict(id int64) *ConflictError {
	return &ConflictError{Kind: ErrTeaIDConflict, ID: id}
}

func (e *ConflictError) Error() string {
	if errors.Is(e.Kind, ErrTeaIDConflict) {
		return fmt.Sprintf("Tea with id %d already exists", e.ID)
	}
	return fmt.Sprintf("Tea with name %s already exists", e.Name)
}

func (e *ConflictError) Unwrap() error {
	return e.Kind
}
