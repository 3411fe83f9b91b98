package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Store hooks
	s := NoopStoreHooks{}
	s.OnLoad(12, 11, time.Millisecond, nil)
	s.OnMutation("update_node", "not_found")
	s.OnPropagate(12, time.Millisecond, errors.New("cycle"))

	// Snapshot hooks
	sn := NoopSnapshotHooks{}
	sn.OnSave(ctx, "file", 2048, nil)
	sn.OnLoad(ctx, "redis", nil)
	sn.OnCacheHit(ctx, "mongo")
	sn.OnCacheMiss(ctx, "mongo")

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/graph")
	h.OnResponse(ctx, "GET", "/graph", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := Snapshot().(NoopSnapshotHooks); !ok {
		t.Error("Snapshot() should return NoopSnapshotHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customSnapshot := &testSnapshotHooks{}
	SetSnapshotHooks(customSnapshot)
	if Snapshot() != customSnapshot {
		t.Error("SetSnapshotHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testStoreHooks{}
	SetStoreHooks(custom)

	// Setting nil should be ignored
	SetStoreHooks(nil)

	if Store() != custom {
		t.Error("SetStoreHooks(nil) should be ignored")
	}

	Reset()
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testStoreHooks{}
	SetStoreHooks(h)
	Store().OnMutation("remove_node", "applied")

	if h.last != "remove_node:applied" {
		t.Errorf("last event = %q", h.last)
	}
}

// Test implementations
type testStoreHooks struct {
	NoopStoreHooks
	last string
}

func (h *testStoreHooks) OnMutation(op, outcome string) { h.last = op + ":" + outcome }

type testSnapshotHooks struct{ NoopSnapshotHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
