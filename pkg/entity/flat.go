package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/matzehuels/stakegraph/pkg/errors"
)

// FlatEntity is one record of a flat entity list: a node that names its
// parent instead of relying on explicit edges. OwnershipPercentage is the
// parent's direct stake in this entity.
type FlatEntity struct {
	Node
	ParentID            string   `json:"parentId,omitempty"`
	OwnershipPercentage *float64 `json:"ownershipPercentage,omitempty"`
}

// EdgeID returns the deterministic identifier of the edge synthesized for a
// parent reference, so reloading identical input yields identical edge IDs.
//
// Plain IDs give "e-<parent>-<child>". If either ID contains a dash, the
// parent is length-prefixed ("e-<len>-<parent>-<child>") so that distinct
// pairs never share an ID. Results longer than [errors.MaxIDLength] are
// replaced by "e-" and a SHA-256 of the length-prefixed form.
func EdgeID(parentID, childID string) string {
	if !strings.Contains(parentID, "-") && !strings.Contains(childID, "-") {
		if id := "e-" + parentID + "-" + childID; len(id) <= errors.MaxIDLength {
			return id
		}
	}
	id := "e-" + strconv.Itoa(len(parentID)) + "-" + parentID + "-" + childID
	if len(id) <= errors.MaxIDLength {
		return id
	}
	sum := sha256.Sum256([]byte(id[2:]))
	return "e-" + hex.EncodeToString(sum[:])
}

// SynthesizeGraph converts a flat entity list into a graph. Nodes keep input
// order and one edge is created for every record with a parent, carrying the
// record's ownership percentage.
//
// SynthesizeGraph does not check that parents exist; validate the list first.
func SynthesizeGraph(records []FlatEntity) Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(records)),
		Edges: make([]Edge, 0, len(records)),
	}
	for _, r := range records {
		n := r.Node.Clone()
		n.Normalize()
		g.Nodes = append(g.Nodes, n)
		if r.ParentID == "" {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			ID:                  EdgeID(r.ParentID, r.ID),
			Source:              r.ParentID,
			Target:              r.ID,
			OwnershipPercentage: clonePtr(r.OwnershipPercentage),
		})
	}
	return g
}
