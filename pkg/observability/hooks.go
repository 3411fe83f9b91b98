// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about graph mutations, snapshot storage, and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages never
// import an observability backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetSnapshotHooks(&mySnapshotHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	err := s.load(payload)
//	observability.Store().OnLoad(nodes, edges, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the graph store. Store operations are
// synchronous in-memory calls and carry no context.
type StoreHooks interface {
	// OnLoad records a wholesale graph replacement attempt.
	OnLoad(nodeCount, edgeCount int, duration time.Duration, err error)

	// OnMutation records a single mutation and its named outcome
	// ("applied", "not_found", "ignored").
	OnMutation(op, outcome string)

	// OnPropagate records an ownership propagation pass.
	OnPropagate(nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Snapshot Hooks
// =============================================================================

// SnapshotHooks receives events from snapshot storage backends.
type SnapshotHooks interface {
	// OnSave records a snapshot write.
	OnSave(ctx context.Context, backend string, size int, err error)

	// OnLoad records a snapshot read.
	OnLoad(ctx context.Context, backend string, err error)

	// OnCacheHit records a read served from the in-process cache.
	OnCacheHit(ctx context.Context, backend string)

	// OnCacheMiss records a read that fell through to the backend.
	OnCacheMiss(ctx context.Context, backend string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(int, int, time.Duration, error) {}
func (NoopStoreHooks) OnMutation(string, string)             {}
func (NoopStoreHooks) OnPropagate(int, time.Duration, error) {}

// NoopSnapshotHooks is a no-op implementation of SnapshotHooks.
type NoopSnapshotHooks struct{}

func (NoopSnapshotHooks) OnSave(context.Context, string, int, error) {}
func (NoopSnapshotHooks) OnLoad(context.Context, string, error)      {}
func (NoopSnapshotHooks) OnCacheHit(context.Context, string)         {}
func (NoopSnapshotHooks) OnCacheMiss(context.Context, string)        {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks    StoreHooks    = NoopStoreHooks{}
	snapshotHooks SnapshotHooks = NoopSnapshotHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetSnapshotHooks registers custom snapshot hooks.
func SetSnapshotHooks(h SnapshotHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		snapshotHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Snapshot returns the registered snapshot hooks.
func Snapshot() SnapshotHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return snapshotHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	snapshotHooks = NoopSnapshotHooks{}
	httpHooks = NoopHTTPHooks{}
}
