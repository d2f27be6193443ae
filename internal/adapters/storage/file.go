package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"tailscale.com/atomicfile"

	"github.com/teamaster/core/internal/domain/entities"
)

const lockPollInterval = 20 * time.Millisecond

// FileStorage keeps the collection in a single JSON file.
// No caching - every Load reads the file and every Store replaces it.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file storage at path, creating its directory
func NewFileStorage(path string) (*FileStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	return &FileStorage{path: path}, nil
}

func (s *FileStorage) Name() string { return "file" }

// Path returns the backing file path
func (s *FileStorage) Path() string { return s.path }

// Load reads the backing file. A missing file is an empty collection.
func (s *FileStorage) Load(ctx context.Context) ([]entities.Tea, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []entities.Tea{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	return decodeTeas(s.path, data)
}

// Store replaces the backing file with the given collection
func (s *FileStorage) Store(ctx context.Context, teas []entities.Tea) error {
	data, err := encodeTeas(teas)
	if err != nil {
		return err
	}

	if err := atomicfile.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	return nil
}

// Lock takes an exclusive flock on a sidecar lock file, polling until ctx is
// done. The data file itself is replaced on every Store, so it cannot carry
// the lock.
func (s *FileStorage) Lock(ctx context.Context) (func(), error) {
	file, err := os.OpenFile(s.path+".lock", os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	fd := int(file.Fd())
	for {
		err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = file.Close()
			return nil, fmt.Errorf("failed to lock file: %w", err)
		}

		select {
		case <-ctx.Done():
			_ = file.Close()
			return nil, fmt.Errorf("failed to lock file: %w", ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}

	return func() {
		_ = syscall.Flock(fd, syscall.LOCK_UN)
		_ = file.Close()
	}, nil
}

// Watch calls fn with the reloaded collection every time the backing file is
// written or replaced, until ctx is done.
func (s *FileStorage) Watch(ctx context.Context, fn func([]entities.Tea, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic replacement swaps the file's inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fn(s.Load(ctx))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", s.path, err)
		}
	}
}
