package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stakegraph/pkg/errors"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/observability"
	"github.com/matzehuels/stakegraph/pkg/store"
	"github.com/matzehuels/stakegraph/pkg/trace"
)

const chainJSON = `{
  "nodes": [
    {"id": "A", "label": "Holdco", "entityType": "holding", "region": "EMEA"},
    {"id": "B", "label": "Opco EU", "entityType": "opco", "region": "EMEA", "complianceStatus": "pending"},
    {"id": "C", "label": "Opco Asia", "entityType": "opco", "region": "APAC"}
  ],
  "edges": [
    {"id": "e1", "source": "A", "target": "B", "ownershipPercentage": 80},
    {"id": "e2", "source": "B", "target": "C", "ownershipPercentage": 50}
  ]
}`

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New()
	srv := New(st, nil)
	if rec := do(t, srv, http.MethodPut, "/graph", chainJSON); rec.Code != http.StatusOK {
		t.Fatalf("PUT /graph = %d: %s", rec.Code, rec.Body)
	}
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := New(store.New(), nil)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[map[string]string](t, rec)["status"]; got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
}

func TestGraphRoundTrip(t *testing.T) {
	srv, st := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/graph", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /graph = %d", rec.Code)
	}
	want, err := graphio.MarshalJSON(st.Graph())
	if err != nil {
		t.Fatal(err)
	}
	if rec.Body.String() != string(want) {
		t.Errorf("GET /graph body =\n%s\nwant\n%s", rec.Body, want)
	}

	// Re-loading the export keeps the graph.
	if rec := do(t, srv, http.MethodPut, "/graph", rec.Body.String()); rec.Code != http.StatusOK {
		t.Fatalf("re-load = %d: %s", rec.Code, rec.Body)
	}
	if got := len(st.Nodes()); got != 3 {
		t.Errorf("nodes after re-load = %d, want 3", got)
	}
}

func TestPutGraphRejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
		field  string
	}{
		{
			name:   "duplicate node",
			body:   `{"nodes":[{"id":"A","label":"A"},{"id":"A","label":"B"}],"edges":[]}`,
			status: http.StatusUnprocessableEntity,
			code:   errors.ErrCodeInvalidPayload,
			field:  "nodes[1].id",
		},
		{
			name:   "unknown endpoint",
			body:   `{"nodes":[{"id":"A","label":"A"}],"edges":[{"id":"e","source":"A","target":"Z"}]}`,
			status: http.StatusUnprocessableEntity,
			code:   errors.ErrCodeInvalidPayload,
			field:  "edges[0].target",
		},
		{
			name:   "cycle",
			body:   `{"nodes":[{"id":"A","label":"A"},{"id":"B","label":"B"}],"edges":[{"id":"ab","source":"A","target":"B"},{"id":"ba","source":"B","target":"A"}]}`,
			status: http.StatusUnprocessableEntity,
			code:   errors.ErrCodeOwnershipCycle,
		},
		{
			name:   "malformed json",
			body:   `{"nodes": [`,
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, st := newTestServer(t)
			rev := st.Revision()

			rec := do(t, srv, http.MethodPut, "/graph", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			resp := decode[errorResponse](t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
			if tt.field != "" {
				found := false
				for _, f := range resp.Fields {
					found = found || f.Path == tt.field
				}
				if !found {
					t.Errorf("fields = %v, want one at %s", resp.Fields, tt.field)
				}
			}
			if st.Revision() != rev || len(st.Nodes()) != 3 {
				t.Error("rejected load changed the store")
			}
		})
	}
}

func TestPutGraphYAMLFlatList(t *testing.T) {
	srv, st := newTestServer(t)
	body := "- id: R\n  label: Root\n- id: X\n  label: Sub\n  parentId: R\n  ownershipPercentage: 50\n"
	req := httptest.NewRequest(http.MethodPut, "/graph", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	n, ok := st.Node("X")
	if !ok || n.EffectiveOwnership == nil || *n.EffectiveOwnership != 50 {
		t.Errorf("X = %+v, want effective ownership 50", n)
	}
}

func TestNodes(t *testing.T) {
	srv, st := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/nodes", `{"id":"D","label":"New Co","region":"AMER"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /nodes = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, srv, http.MethodPost, "/nodes", `{"id":"D"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate POST /nodes = %d, want 409", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/nodes", `{"id":""}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty id POST /nodes = %d, want 422", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/nodes", `{"id":"E","bogus":1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field POST /nodes = %d, want 400", rec.Code)
	}

	rec = do(t, srv, http.MethodPatch, "/nodes/B", `{"label":"Opco Europe","complianceStatus":"compliant"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH = %d: %s", rec.Code, rec.Body)
	}
	if n, _ := st.Node("B"); n.Label != "Opco Europe" || n.ComplianceStatus != "compliant" {
		t.Errorf("B after patch = %+v", n)
	}
	if rec := do(t, srv, http.MethodPatch, "/nodes/B", `{"complianceStatus":"fine"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid PATCH = %d, want 422", rec.Code)
	}
	if rec := do(t, srv, http.MethodPatch, "/nodes/Z", `{"label":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("PATCH unknown = %d, want 404", rec.Code)
	}

	if rec := do(t, srv, http.MethodGet, "/nodes/Z", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown node = %d, want 404", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/nodes/Z", ""); rec.Code != http.StatusNotFound {
		t.Errorf("DELETE unknown node = %d, want 404", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/nodes/B", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /nodes/B = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec)["outcome"]; got != "applied" {
		t.Errorf("outcome = %q, want applied", got)
	}
	if edges := st.Edges(); len(edges) != 0 {
		t.Errorf("edges after cascade = %v, want none", edges)
	}
}

func TestEdges(t *testing.T) {
	srv, st := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/edges", `{"id":"e3","source":"A","target":"Z","ownershipPercentage":10}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("edge to missing node = %d, want 404", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/edges", `{"id":"e3","source":"A","target":"C","ownershipPercentage":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /edges = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, srv, http.MethodPost, "/edges", `{"id":"e3","source":"A","target":"C"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate edge = %d, want 409", rec.Code)
	}
	if got := len(st.Edges()); got != 3 {
		t.Errorf("edges = %d, want 3", got)
	}
	rec = do(t, srv, http.MethodPost, "/edges", `{"id":"back","source":"C","target":"A","ownershipPercentage":5}`)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "OWNERSHIP_CYCLE") {
		t.Errorf("cycle-closing edge = %d: %s", rec.Code, rec.Body)
	}

	if rec := do(t, srv, http.MethodDelete, "/edges/e3", ""); rec.Code != http.StatusOK {
		t.Errorf("DELETE edge = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/edges/e3", ""); rec.Code != http.StatusNotFound {
		t.Errorf("DELETE edge again = %d, want 404", rec.Code)
	}
}

func TestSelection(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/selection", `{"id":"C"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /selection = %d: %s", rec.Code, rec.Body)
	}
	sel := decode[selectionResponse](t, rec)
	if sel.Selection != "C" {
		t.Errorf("selection = %q, want C", sel.Selection)
	}
	if got := strings.Join(sel.Path.Nodes, ","); got != "C,B,A" {
		t.Errorf("path nodes = %s, want C,B,A", got)
	}
	if got := strings.Join(sel.Path.Edges, ","); got != "e2,e1" {
		t.Errorf("path edges = %s, want e2,e1", got)
	}

	if rec := do(t, srv, http.MethodPut, "/selection", `{"id":"Z"}`); rec.Code != http.StatusNotFound {
		t.Errorf("select unknown = %d, want 404", rec.Code)
	}
	if got := decode[selectionResponse](t, do(t, srv, http.MethodGet, "/selection", "")).Selection; got != "C" {
		t.Errorf("selection after failed select = %q, want C", got)
	}

	sel = decode[selectionResponse](t, do(t, srv, http.MethodDelete, "/selection", ""))
	if sel.Selection != "" || !sel.Path.Empty() {
		t.Errorf("after clear = %+v", sel)
	}
}

func TestAncestors(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/nodes/B/ancestors", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	p := decode[trace.Path](t, rec)
	if got := strings.Join(p.IDs(), ","); got != "B,A,e1" {
		t.Errorf("ancestors = %s, want B,A,e1", got)
	}
	if rec := do(t, srv, http.MethodGet, "/nodes/Z/ancestors", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown = %d, want 404", rec.Code)
	}
}

func TestFiltersAndLegend(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := do(t, srv, http.MethodPut, "/filters", `{"region":"emea"}`); rec.Code != http.StatusOK {
		t.Fatalf("PUT /filters = %d: %s", rec.Code, rec.Body)
	}
	g, err := graphio.ReadJSON(do(t, srv, http.MethodGet, "/graph/filtered", "").Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 || g.Edges[0].ID != "e1" {
		t.Errorf("filtered = %+v", g)
	}

	legend := decode[[]store.LegendEntry](t, do(t, srv, http.MethodGet, "/legend", ""))
	if len(legend) != 2 || legend[0].EntityType != "holding" || legend[1].Count != 1 {
		t.Errorf("legend = %+v", legend)
	}

	if rec := do(t, srv, http.MethodPut, "/filters", `{"compliance":"fine"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad compliance filter = %d, want 400", rec.Code)
	}
	if got := decode[store.Filters](t, do(t, srv, http.MethodGet, "/filters", "")); got.Region != "emea" {
		t.Errorf("filters = %+v, want region kept", got)
	}
}

func TestSandbox(t *testing.T) {
	srv, st := newTestServer(t)

	resp := decode[sandboxResponse](t, do(t, srv, http.MethodPost, "/sandbox/commit", ""))
	if resp.Outcome != "ignored" || resp.State.String() != "live" {
		t.Errorf("commit while live = %+v", resp)
	}

	resp = decode[sandboxResponse](t, do(t, srv, http.MethodPost, "/sandbox/start", ""))
	if resp.Outcome != "applied" || resp.StartedAt == nil {
		t.Errorf("start = %+v", resp)
	}
	do(t, srv, http.MethodPost, "/nodes", `{"id":"D"}`)
	if n, _ := st.Node("D"); !n.IsDraft {
		t.Error("node added in sandbox is not a draft")
	}

	resp = decode[sandboxResponse](t, do(t, srv, http.MethodPost, "/sandbox/discard", ""))
	if resp.Outcome != "applied" || resp.State.String() != "live" {
		t.Errorf("discard = %+v", resp)
	}
	if _, ok := st.Node("D"); ok {
		t.Error("discard kept sandbox node")
	}
}

func TestPropagate(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/graph/propagate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[propagateResponse](t, rec)
	if resp.Values["C"] != 40 {
		t.Errorf("C = %v, want 40", resp.Values["C"])
	}
	if len(resp.Roots) != 1 || resp.Roots[0] != "A" {
		t.Errorf("roots = %v, want [A]", resp.Roots)
	}
}

func TestSnapshots(t *testing.T) {
	srv, st := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/snapshots", `{"name":"baseline"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save = %d: %s", rec.Code, rec.Body)
	}
	info := decode[map[string]any](t, rec)
	id, _ := info["id"].(string)
	if id == "" || info["name"] != "baseline" {
		t.Fatalf("info = %v", info)
	}

	list := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/snapshots", ""))
	if len(list) != 1 {
		t.Errorf("list = %v, want 1 entry", list)
	}

	st.RemoveNode("C")
	if rec := do(t, srv, http.MethodPost, "/snapshots/"+id+"/restore", ""); rec.Code != http.StatusOK {
		t.Fatalf("restore = %d: %s", rec.Code, rec.Body)
	}
	if _, ok := st.Node("C"); !ok {
		t.Error("restore did not bring back C")
	}

	if rec := do(t, srv, http.MethodGet, "/snapshots/"+id, ""); rec.Code != http.StatusOK {
		t.Errorf("get = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/snapshots/"+id, ""); rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}
	rec = do(t, srv, http.MethodDelete, "/snapshots/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again = %d, want 404", rec.Code)
	}
	if got := decode[errorResponse](t, rec).Code; got != errors.ErrCodeSnapshotNotFound {
		t.Errorf("code = %s, want SNAPSHOT_NOT_FOUND", got)
	}
}

type testHTTPHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *testHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	defer observability.Reset()
	hooks := &testHTTPHooks{}
	observability.SetHTTPHooks(hooks)

	srv := New(store.New(), nil)
	do(t, srv, http.MethodGet, "/healthz", "")
	do(t, srv, http.MethodGet, "/nodes/Z", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 2 || hooks.statuses[0] != 200 || hooks.statuses[1] != 404 {
		t.Errorf("statuses = %v, want [200 404]", hooks.statuses)
	}
}

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(store.New(), nil)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
