package ports

import (
	"context"

	"github.com/teamaster/core/internal/domain/entities"
)

// TeaStorage persists the whole tea collection. Load must return an empty,
// non-nil slice when nothing has been stored yet.
type TeaStorage interface {
	Load(ctx context.Context) ([]entities.Tea, error)
	Store(ctx context.Context, teas []entities.Tea) error
	Name() string
}

// StorageLocker is implemented by storages that can hold an exclusive
// section across processes. The returned function releases it.
type StorageLocker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// StoragePinger is implemented by storages backed by a server
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// TeaRepository defines the interface for tea record operations
type TeaRepository interface {
	GetTeaByName(ctx context.Context, name string) (*entities.Tea, error)
	SaveTea(ctx context.Context, tea entities.Tea) error
	GenerateNewTeaID(ctx context.Context) (int64, error)
	ListTeas(ctx context.Context) ([]entities.Tea, error)
}
