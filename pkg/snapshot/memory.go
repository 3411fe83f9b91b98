package snapshot

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/stakegraph/pkg/observability"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Snapshot)}
}

func (m *MemoryStore) Save(ctx context.Context, s Snapshot) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	m.mu.Lock()
	m.items[s.ID] = s.Clone()
	m.mu.Unlock()
	observability.Snapshot().OnSave(ctx, BackendMemory, 0, nil)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Snapshot, error) {
	m.mu.RLock()
	s, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		err := notFound(id)
		observability.Snapshot().OnLoad(ctx, BackendMemory, err)
		return Snapshot{}, err
	}
	observability.Snapshot().OnLoad(ctx, BackendMemory, nil)
	return s.Clone(), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, s.Info())
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return notFound(id)
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) Backend() string { return BackendMemory }

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// sortNewestFirst orders by creation time descending, then by ID.
func sortNewestFirst(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
