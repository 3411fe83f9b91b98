package sample

import (
	"math"
	"testing"

	"github.com/matzehuels/stakegraph/pkg/validate"
)

func TestGraph(t *testing.T) {
	g, err := Graph()
	if err != nil {
		t.Fatalf("Graph() error: %v", err)
	}
	if len(g.Nodes) != 12 || len(g.Edges) != 12 {
		t.Errorf("got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}

	want := map[string]float64{
		"ultimate-parent": 100,
		"fr-opco":         80,
		"br-opco":         60,
		"in-jv":           26,
		"ip-co":           100, // 50 via Ireland + 50 via Germany
	}
	idx := g.NodeIndex()
	for id, w := range want {
		n := g.Nodes[idx[id]]
		if n.EffectiveOwnership == nil || math.Abs(*n.EffectiveOwnership-w) > 1e-9 {
			t.Errorf("%s effective ownership = %v, want %v", id, n.EffectiveOwnership, w)
		}
	}
}

func TestPayloadValidates(t *testing.T) {
	p, err := Payload()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := validate.Graph(p); err != nil {
		t.Errorf("sample payload invalid: %v", err)
	}
}

func TestJSONIsCopy(t *testing.T) {
	b := JSON()
	b[0] = 'x'
	if JSON()[0] != '{' {
		t.Error("JSON() exposes embedded bytes")
	}
}
