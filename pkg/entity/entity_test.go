package entity

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleGraph() Graph {
	due := Date{Year: 2025, Month: time.March, Day: 31}
	return Graph{
		Nodes: []Node{
			{ID: "hold", Label: "HoldCo", Officers: []string{"A. Smith"}, FilingDueDate: &due, CITRate: Float(25)},
			{ID: "op", Label: "OpCo", EffectiveOwnership: Float(60)},
		},
		Edges: []Edge{
			{ID: "e1", Source: "hold", Target: "op", OwnershipPercentage: Float(60)},
		},
	}
}

func TestGraphCloneIsIndependent(t *testing.T) {
	g := sampleGraph()
	c := g.Clone()

	if !reflect.DeepEqual(g, c) {
		t.Fatalf("Clone() = %+v, want %+v", c, g)
	}

	c.Nodes[0].Officers[0] = "changed"
	c.Nodes[0].FilingDueDate.Day = 1
	*c.Nodes[0].CITRate = 10
	*c.Nodes[1].EffectiveOwnership = 1
	*c.Edges[0].OwnershipPercentage = 1
	c.Nodes[0].Label = "changed"

	if g.Nodes[0].Officers[0] != "A. Smith" {
		t.Error("officers slice is shared")
	}
	if g.Nodes[0].FilingDueDate.Day != 31 {
		t.Error("filing date is shared")
	}
	if *g.Nodes[0].CITRate != 25 {
		t.Error("CIT rate is shared")
	}
	if *g.Nodes[1].EffectiveOwnership != 60 {
		t.Error("effective ownership is shared")
	}
	if *g.Edges[0].OwnershipPercentage != 60 {
		t.Error("ownership percentage is shared")
	}
	if g.Nodes[0].Label != "HoldCo" {
		t.Error("label is shared")
	}
}

func TestGraphCloneEmpty(t *testing.T) {
	c := Graph{}.Clone()
	if c.Nodes == nil || c.Edges == nil {
		t.Error("Clone() of empty graph should produce non-nil slices")
	}
}

func TestEdgeStake(t *testing.T) {
	if got := (Edge{}).Stake(); got != 0 {
		t.Errorf("Stake() = %v, want 0", got)
	}
	if got := (Edge{OwnershipPercentage: Float(42.5)}).Stake(); got != 42.5 {
		t.Errorf("Stake() = %v, want 42.5", got)
	}
}

func TestGraphRoots(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Edges: []Edge{{ID: "1", Source: "a", Target: "b"}, {ID: "2", Source: "b", Target: "c"}},
	}
	if got, want := g.Roots(), []string{"a", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
}

func TestNodeJSONFieldOrder(t *testing.T) {
	g := sampleGraph()
	data, err := json.Marshal(g.Nodes[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	order := []string{`"id"`, `"label"`, `"officers"`, `"filingDueDate":"2025-03-31"`, `"citRate"`}
	last := -1
	for _, key := range order {
		i := strings.Index(s, key)
		if i < 0 {
			t.Fatalf("missing %s in %s", key, s)
		}
		if i < last {
			t.Errorf("%s out of order in %s", key, s)
		}
		last = i
	}
	if strings.Contains(s, "effectiveOwnership") {
		t.Errorf("absent effectiveOwnership should be omitted: %s", s)
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("String() = %q, want 2024-02-29", d.String())
	}

	for _, bad := range []string{"2023-02-29", "31/03/2025", "2025-3-1", ""} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}

	var decoded Date
	if err := json.Unmarshal([]byte(`"2025-12-01"`), &decoded); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if decoded != (Date{Year: 2025, Month: time.December, Day: 1}) {
		t.Errorf("decoded = %v", decoded)
	}
	if err := json.Unmarshal([]byte(`20251201`), &decoded); err == nil {
		t.Error("UnmarshalJSON should reject non-string dates")
	}

	if !(Date{2024, 1, 1}).Before(Date{2024, 1, 2}) {
		t.Error("Before() = false, want true")
	}
}

func TestNodePatchApply(t *testing.T) {
	n := Node{ID: "op", Label: "OpCo", Region: "EMEA", Officers: []string{"x"}}
	label := "OpCo GmbH"
	status := ComplianceOverdue
	officers := []string{"B. Jones", "C. Lee"}
	p := NodePatch{Label: &label, ComplianceStatus: &status, Officers: &officers, CITRate: Float(15)}

	p.Apply(&n)

	if n.Label != "OpCo GmbH" {
		t.Errorf("Label = %q", n.Label)
	}
	if n.Region != "EMEA" {
		t.Errorf("Region changed to %q", n.Region)
	}
	if n.ComplianceStatus != ComplianceOverdue {
		t.Errorf("ComplianceStatus = %q", n.ComplianceStatus)
	}
	if !reflect.DeepEqual(n.Officers, officers) {
		t.Errorf("Officers = %v", n.Officers)
	}
	officers[0] = "mutated"
	if n.Officers[0] != "B. Jones" {
		t.Error("patch officers slice is shared with node")
	}
	if n.CITRate == nil || *n.CITRate != 15 {
		t.Errorf("CITRate = %v", n.CITRate)
	}

	empty := ""
	NodePatch{Label: &empty}.Apply(&n)
	if n.Label != "op" {
		t.Errorf("empty label should default to id, got %q", n.Label)
	}

	if !(NodePatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	if p.Empty() {
		t.Error("non-zero patch should not be empty")
	}
}

func TestEnumValid(t *testing.T) {
	if !ComplianceOverdue.Valid() || ComplianceStatus("late").Valid() {
		t.Error("ComplianceStatus.Valid mismatch")
	}
	if !PillarTwoSafeHarbour.Valid() || PillarTwoStatus("maybe").Valid() {
		t.Error("PillarTwoStatus.Valid mismatch")
	}
}

func TestSynthesizeGraph(t *testing.T) {
	records := []FlatEntity{
		{Node: Node{ID: "R"}, OwnershipPercentage: Float(100)},
		{Node: Node{ID: "X", Label: "Sub X"}, ParentID: "R", OwnershipPercentage: Float(50)},
		{Node: Node{ID: "Y"}, ParentID: "X"},
	}

	g := SynthesizeGraph(records)

	if len(g.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(g.Nodes))
	}
	if g.Nodes[0].Label != "R" {
		t.Errorf("label default: got %q, want R", g.Nodes[0].Label)
	}
	want := []Edge{
		{ID: "e-R-X", Source: "R", Target: "X", OwnershipPercentage: Float(50)},
		{ID: "e-X-Y", Source: "X", Target: "Y"},
	}
	if !reflect.DeepEqual(g.Edges, want) {
		t.Errorf("edges = %+v, want %+v", g.Edges, want)
	}

	again := SynthesizeGraph(records)
	if !reflect.DeepEqual(g, again) {
		t.Error("SynthesizeGraph is not deterministic")
	}
}

func TestEdgeIDIsUnambiguous(t *testing.T) {
	tests := []struct {
		parent, child, want string
	}{
		{"R", "X", "e-R-X"},
		{"a", "a-b", "e-1-a-a-b"},
		{"a-b", "c", "e-3-a-b-c"},
		{"a", "b-c", "e-1-a-b-c"},
	}
	seen := make(map[string]string)
	for _, tt := range tests {
		got := EdgeID(tt.parent, tt.child)
		if got != tt.want {
			t.Errorf("EdgeID(%q, %q) = %q, want %q", tt.parent, tt.child, got, tt.want)
		}
		pair := tt.parent + " -> " + tt.child
		if prev, ok := seen[got]; ok {
			t.Errorf("EdgeID collision: %s and %s both give %q", prev, pair, got)
		}
		seen[got] = pair
	}

	long := strings.Repeat("p", 200)
	id := EdgeID(long, strings.Repeat("c", 200))
	if len(id) > 256 || !strings.HasPrefix(id, "e-") {
		t.Errorf("EdgeID(long) = %q (%d chars)", id, len(id))
	}
	if id == EdgeID(long, strings.Repeat("c", 199)) {
		t.Error("long EdgeIDs collide")
	}
}

func TestSynthesizeGraphDashedIDs(t *testing.T) {
	g := SynthesizeGraph([]FlatEntity{
		{Node: Node{ID: "a"}},
		{Node: Node{ID: "a-b"}, ParentID: "a"},
		{Node: Node{ID: "c"}, ParentID: "a-b"},
		{Node: Node{ID: "b-c"}, ParentID: "a"},
	})
	if idx := g.EdgeIndex(); len(idx) != len(g.Edges) {
		t.Errorf("edge ids not unique: %+v", g.Edges)
	}
}

func TestFlatEntityJSON(t *testing.T) {
	var r FlatEntity
	err := json.Unmarshal([]byte(`{"id":"X","parentId":"R","ownershipPercentage":50,"region":"APAC"}`), &r)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ID != "X" || r.ParentID != "R" || r.Region != "APAC" || r.OwnershipPercentage == nil || *r.OwnershipPercentage != 50 {
		t.Errorf("decoded = %+v", r)
	}
}
