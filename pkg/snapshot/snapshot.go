// Package snapshot persists named copies of an ownership graph.
//
// Snapshots are simple value records: an ID, a name, a creation time and a
// deep copy of the graph. Several storage backends implement [Store]:
//   - memory: in-process map for tests and single-run tools
//   - file: one JSON file per snapshot, for the CLI
//   - redis: shared storage for multiple server instances
//   - mongo: document storage for long-lived archives
//
// Any backend can be wrapped in a [CachedStore] to serve repeated reads from
// an in-process LRU cache.
//
// # Usage
//
//	st, err := snapshot.Open(ctx, snapshot.Options{Backend: "file"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	snap := snapshot.New("before restructuring", s.Graph())
//	if err := st.Save(ctx, snap); err != nil {
//	    return err
//	}
//
// Missing snapshots are reported with code SNAPSHOT_NOT_FOUND.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
)

// Snapshot is a named, immutable copy of a graph.
type Snapshot struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"createdAt"`
	Graph     entity.Graph `json:"graph"`
}

// Info is the metadata of a snapshot, as returned by [Store.List].
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
}

// New creates a snapshot of g with a random ID. The graph is copied.
func New(name string, g entity.Graph) Snapshot {
	id := uuid.NewString()
	if name == "" {
		name = id[:8]
	}
	return Snapshot{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Graph:     g.Clone(),
	}
}

// Info returns the metadata of s.
func (s Snapshot) Info() Info {
	return Info{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Nodes:     len(s.Graph.Nodes),
		Edges:     len(s.Graph.Edges),
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	s.Graph = s.Graph.Clone()
	return s
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save stores s, replacing any snapshot with the same ID.
	Save(ctx context.Context, s Snapshot) error

	// Get retrieves a snapshot by ID.
	// Returns an error with code SNAPSHOT_NOT_FOUND if it does not exist.
	Get(ctx context.Context, id string) (Snapshot, error)

	// List returns the metadata of all snapshots, newest first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a snapshot.
	// Returns an error with code SNAPSHOT_NOT_FOUND if it does not exist.
	Delete(ctx context.Context, id string) error

	// Backend names the storage backend, e.g. "file".
	Backend() string

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend   string // memory, file, redis or mongo
	CacheSize int    // LRU entries in front of the backend; 0 disables caching

	Dir string // file: directory; defaults to ~/.config/stakegraph/snapshots

	Redis RedisConfig
	Mongo MongoConfig
}

// Open connects to the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		st  Store
		err error
	)
	switch opts.Backend {
	case BackendMemory, "":
		st = NewMemoryStore()
	case BackendFile:
		st, err = NewFileStore(opts.Dir)
	case BackendRedis:
		st, err = NewRedisStore(ctx, opts.Redis)
	case BackendMongo:
		st, err = NewMongoStore(ctx, opts.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown snapshot backend %q (want memory, file, redis or mongo)", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize > 0 {
		return NewCachedStore(st, opts.CacheSize)
	}
	return st, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
}

func encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeStorage, err, "parse snapshot")
	}
	s.Graph = s.Graph.Clone()
	return s, nil
}

func checkID(id string) error {
	return errors.ValidateSnapshotID(id)
}
