package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/observability"
)

// FileStore is a file-based snapshot store for CLI applications.
// Snapshots are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// DefaultDir returns ~/.config/stakegraph/snapshots.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "stakegraph", "snapshots"), nil
}

// NewFileStore creates a new file-based snapshot store.
// If baseDir is empty, defaults to [DefaultDir].
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create snapshot dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.baseDir, id+".json")
}

func (f *FileStore) Save(ctx context.Context, s Snapshot) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	data, err := encode(s)
	if err == nil {
		f.mu.Lock()
		err = os.WriteFile(f.path(s.ID), data, 0o600)
		f.mu.Unlock()
		if err != nil {
			err = errors.Wrap(errors.ErrCodeStorage, err, "write snapshot file")
		}
	}
	observability.Snapshot().OnSave(ctx, BackendFile, len(data), err)
	return err
}

func (f *FileStore) Get(ctx context.Context, id string) (Snapshot, error) {
	s, err := f.read(id)
	observability.Snapshot().OnLoad(ctx, BackendFile, err)
	return s, err
}

func (f *FileStore) read(id string) (Snapshot, error) {
	if err := checkID(id); err != nil {
		return Snapshot{}, err
	}
	f.mu.RLock()
	data, err := os.ReadFile(f.path(id))
	f.mu.RUnlock()
	if os.IsNotExist(err) {
		return Snapshot{}, notFound(id)
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeStorage, err, "read snapshot file")
	}
	return decode(data)
}

func (f *FileStore) List(ctx context.Context) ([]Info, error) {
	f.mu.RLock()
	entries, err := os.ReadDir(f.baseDir)
	f.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read snapshot dir")
	}

	out := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		s, err := f.read(id)
		if err != nil {
			continue
		}
		out = append(out, s.Info())
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *FileStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(id))
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove snapshot file")
	}
	return nil
}

func (f *FileStore) Backend() string { return BackendFile }

func (f *FileStore) Close() error { return nil }

// Path returns the base directory for snapshot files.
func (f *FileStore) Path() string {
	return f.baseDir
}

var _ Store = (*FileStore)(nil)
