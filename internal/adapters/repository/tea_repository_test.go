package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamaster/core/internal/adapters/storage"
	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/config"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestGetTeaByName(t *testing.T) {
	purple := entities.Tea{ID: 1, Name: "Purple Tea", Description: "Delicious tea"}

	tests := []struct {
		name    string
		seed    []entities.Tea
		lookup  string
		want    *entities.Tea
		wantErr error
	}{
		{name: "existing name", seed: []entities.Tea{purple}, lookup: "Purple Tea", want: &purple},
		{name: "unknown name", seed: []entities.Tea{purple}, lookup: "Black Tea", wantErr: entities.ErrTeaNotFound},
		{name: "empty collection", lookup: "Purple Tea", wantErr: entities.ErrTeaNotFound},
		{name: "match is case sensitive", seed: []entities.Tea{purple}, lookup: "purple tea", wantErr: entities.ErrTeaNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewTeaRepository(storage.NewMemoryStorage(tt.seed...))

			got, err := repo.GetTeaByName(context.Background(), tt.lookup)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetTeaByNameReturnsFirstMatch(t *testing.T) {
	repo := NewTeaRepository(storage.NewMemoryStorage(
		entities.Tea{ID: 1, Name: "Dup", Description: "first"},
		entities.Tea{ID: 2, Name: "Dup", Description: "second"},
	))

	got, err := repo.GetTeaByName(context.Background(), "Dup")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestGetTeaByNameParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	s, err := storage.NewFileStorage(path)
	require.NoError(t, err)

	_, err = NewTeaRepository(s).GetTeaByName(context.Background(), "Purple Tea")
	assert.ErrorIs(t, err, entities.ErrCorruptData)
}

func TestGenerateNewTeaIDTimestamp(t *testing.T) {
	repo := NewTeaRepository(storage.NewMemoryStorage(), WithClock(fixedClock(1632448800000)))

	id, err := repo.GenerateNewTeaID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1632448800000), id)
}

func TestGenerateNewTeaIDSequence(t *testing.T) {
	repo := NewTeaRepository(
		storage.NewMemoryStorage(entities.Tea{ID: 4, Name: "A"}, entities.Tea{ID: 9, Name: "B"}, entities.Tea{ID: 2, Name: "C"}),
		WithIDStrategy(config.IDStrategySequence),
	)

	id, err := repo.GenerateNewTeaID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	empty := NewTeaRepository(storage.NewMemoryStorage(), WithIDStrategy(config.IDStrategySequence))
	id, err = empty.GenerateNewTeaID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestSaveTeaAppendsNewTea(t *testing.T) {
	mem := storage.NewMemoryStorage()
	repo := NewTeaRepository(mem)
	ctx := context.Background()
	tea := entities.Tea{ID: 1, Name: "Purple Tea", Description: "Delicious tea"}

	require.NoError(t, repo.SaveTea(ctx, tea))

	teas, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.Tea{tea}, teas)
	assert.Equal(t, 1, mem.Writes())
}

func TestSaveTeaReplacesInPlace(t *testing.T) {
	mem := storage.NewMemoryStorage(
		entities.Tea{ID: 1, Name: "Purple Tea", Description: "Old desc"},
		entities.Tea{ID: 2, Name: "Black Tea", Description: "Strong"},
	)
	repo := NewTeaRepository(mem)
	ctx := context.Background()

	require.NoError(t, repo.SaveTea(ctx, entities.Tea{ID: 1, Name: "Purple Tea", Description: "Updated desc"}))

	teas, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.Tea{
		{ID: 1, Name: "Purple Tea", Description: "Updated desc"},
		{ID: 2, Name: "Black Tea", Description: "Strong"},
	}, teas)
}

func TestSaveTeaConflicts(t *testing.T) {
	seed := entities.Tea{ID: 1, Name: "Purple Tea", Description: "Delicious tea"}

	tests := []struct {
		name    string
		tea     entities.Tea
		kind    error
		message string
	}{
		{
			name:    "name taken by another id",
			tea:     entities.Tea{ID: 2, Name: "Purple Tea", Description: "New tea"},
			kind:    entities.ErrTeaNameConflict,
			message: "Tea with name Purple Tea already exists",
		},
		{
			name:    "id taken by another name",
			tea:     entities.Tea{ID: 1, Name: "Black Tea", Description: "New tea"},
			kind:    entities.ErrTeaIDConflict,
			message: "Tea with id 1 already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storage.NewMemoryStorage(seed)
			repo := NewTeaRepository(mem)

			err := repo.SaveTea(context.Background(), tt.tea)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.EqualError(t, err, tt.message)

			var conflict *entities.ConflictError
			assert.True(t, errors.As(err, &conflict))
			assert.Equal(t, 0, mem.Writes())
		})
	}
}

func TestSaveTeaNameConflictCheckedFirst(t *testing.T) {
	mem := storage.NewMemoryStorage(
		entities.Tea{ID: 1, Name: "Green Tea"},
		entities.Tea{ID: 2, Name: "Black Tea"},
	)
	repo := NewTeaRepository(mem)

	// both the name and the id belong to other records
	err := repo.SaveTea(context.Background(), entities.Tea{ID: 2, Name: "Green Tea"})
	assert.EqualError(t, err, "Tea with name Green Tea already exists")
}

func TestSaveTeaPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("disk full")
	ctx := context.Background()

	mem := storage.NewMemoryStorage()
	mem.FailStore(boom)
	err := NewTeaRepository(mem).SaveTea(ctx, entities.Tea{ID: 1, Name: "A"})
	assert.ErrorIs(t, err, boom)

	mem = storage.NewMemoryStorage()
	mem.FailLoad(boom)
	err = NewTeaRepository(mem).SaveTea(ctx, entities.Tea{ID: 1, Name: "A"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, mem.Writes())
}

func TestSaveTeaWritesDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := storage.NewFileStorage(path)
	require.NoError(t, err)
	repo := NewTeaRepository(s)

	require.NoError(t, repo.SaveTea(context.Background(), entities.Tea{ID: 1, Name: "Purple Tea", Description: "Delicious tea"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Purple Tea","description":"Delicious tea"}]`, string(data))
}

func TestSaveTeaConflictLeavesDataFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	seed := []byte(`[{"id":1,"name":"Purple Tea","description":"Delicious tea"}]`)
	require.NoError(t, os.WriteFile(path, seed, 0o644))
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	s, err := storage.NewFileStorage(path)
	require.NoError(t, err)
	repo := NewTeaRepository(s)

	err = repo.SaveTea(context.Background(), entities.Tea{ID: 2, Name: "Purple Tea", Description: "Another"})
	require.EqualError(t, err, "Tea with name Purple Tea already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, seed, data)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))
}

func TestSaveTeaLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	holder, err := storage.NewFileStorage(path)
	require.NoError(t, err)
	s, err := storage.NewFileStorage(path)
	require.NoError(t, err)

	unlock, err := holder.Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	repo := NewTeaRepository(s, WithLockTimeout(50*time.Millisecond))
	err = repo.SaveTea(context.Background(), entities.Tea{ID: 1, Name: "A"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoFileExists(t, path)
}

func TestSaveTeaConcurrentWritersKeepEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ctx := context.Background()

	// separate repositories share only the file, so the file lock does the work
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := storage.NewFileStorage(path)
			if err != nil {
				errs <- err
				return
			}
			errs <- NewTeaRepository(s).SaveTea(ctx, entities.Tea{ID: int64(i + 1), Name: fmt.Sprintf("Tea %d", i)})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	s, err := storage.NewFileStorage(path)
	require.NoError(t, err)
	teas, err := NewTeaRepository(s).ListTeas(ctx)
	require.NoError(t, err)
	assert.Len(t, teas, 20)
}

func TestListTeas(t *testing.T) {
	seed := []entities.Tea{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}}
	repo := NewTeaRepository(storage.NewMemoryStorage(seed...))

	teas, err := repo.ListTeas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed, teas)
}
