package entity

import (
	"slices"
)

// ComplianceStatus is the compliance overlay category of an entity.
type ComplianceStatus string

const (
	ComplianceCompliant ComplianceStatus = "compliant"
	CompliancePending   ComplianceStatus = "pending"
	ComplianceOverdue   ComplianceStatus = "overdue"
	ComplianceAtRisk    ComplianceStatus = "at_risk"
)

// ComplianceStatuses lists every valid [ComplianceStatus] in display order.
var ComplianceStatuses = []ComplianceStatus{
	ComplianceCompliant,
	CompliancePending,
	ComplianceOverdue,
	ComplianceAtRisk,
}

// Valid reports whether s is one of the known compliance statuses.
func (s ComplianceStatus) Valid() bool { return slices.Contains(ComplianceStatuses, s) }

// PillarTwoStatus records whether an entity falls under the OECD Pillar Two
// global minimum tax rules.
type PillarTwoStatus string

const (
	PillarTwoInScope     PillarTwoStatus = "in_scope"
	PillarTwoOutOfScope  PillarTwoStatus = "out_of_scope"
	PillarTwoSafeHarbour PillarTwoStatus = "safe_harbour"
	PillarTwoUnderReview PillarTwoStatus = "under_review"
)

// PillarTwoStatuses lists every valid [PillarTwoStatus] in display order.
var PillarTwoStatuses = []PillarTwoStatus{
	PillarTwoInScope,
	PillarTwoOutOfScope,
	PillarTwoSafeHarbour,
	PillarTwoUnderReview,
}

// Valid reports whether s is one of the known Pillar Two statuses.
func (s PillarTwoStatus) Valid() bool { return slices.Contains(PillarTwoStatuses, s) }

// Node is a legal entity in the ownership graph.
//
// Field order matches the canonical JSON export. Optional string fields are
// empty when absent; EffectiveOwnership is nil until propagation computes it.
type Node struct {
	ID                 string           `json:"id"`
	Label              string           `json:"label"`
	Color              string           `json:"color,omitempty"`
	EntityType         string           `json:"entityType,omitempty"`
	Jurisdiction       string           `json:"jurisdiction,omitempty"`
	TaxID              string           `json:"taxId,omitempty"`
	Officers           []string         `json:"officers,omitempty"`
	FilingDueDate      *Date            `json:"filingDueDate,omitempty"`
	IsDraft            bool             `json:"isDraft,omitempty"`
	TaxResidency       string           `json:"taxResidency,omitempty"`
	Currency           string           `json:"currency,omitempty"`
	CITRate            *float64         `json:"citRate,omitempty"`
	Region             string           `json:"region,omitempty"`
	ComplianceStatus   ComplianceStatus `json:"complianceStatus,omitempty"`
	PillarTwoStatus    PillarTwoStatus  `json:"pillarTwoStatus,omitempty"`
	EffectiveOwnership *float64         `json:"effectiveOwnership,omitempty"`
}

// Normalize applies the label default: an empty label becomes the ID.
func (n *Node) Normalize() {
	if n.Label == "" {
		n.Label = n.ID
	}
}

// Clone returns a deep copy of n. Slices and pointer fields are not shared.
func (n Node) Clone() Node {
	n.Officers = slices.Clone(n.Officers)
	n.FilingDueDate = clonePtr(n.FilingDueDate)
	n.CITRate = clonePtr(n.CITRate)
	n.EffectiveOwnership = clonePtr(n.EffectiveOwnership)
	return n
}

// Edge is a directed ownership relationship: Source holds a stake in Target.
type Edge struct {
	ID                  string   `json:"id"`
	Source              string   `json:"source"`
	Target              string   `json:"target"`
	Label               string   `json:"label,omitempty"`
	OwnershipPercentage *float64 `json:"ownershipPercentage,omitempty"`
	IsDraft             bool     `json:"isDraft,omitempty"`
}

// Stake returns the direct ownership percentage, or 0 when absent.
func (e Edge) Stake() float64 {
	if e.OwnershipPercentage == nil {
		return 0
	}
	return *e.OwnershipPercentage
}

// Clone returns a deep copy of e.
func (e Edge) Clone() Edge {
	e.OwnershipPercentage = clonePtr(e.OwnershipPercentage)
	return e
}

// Graph is the aggregate of all nodes and edges. Order is significant:
// nodes and edges keep insertion order for export and display.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep, independent copy of g. The result never aliases g,
// so either side can be mutated freely. Nil slices become empty slices.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range g.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}

// NodeIndex maps node IDs to their position in g.Nodes.
func (g Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// HasNode reports whether a node with the given ID exists.
func (g Graph) HasNode(id string) bool {
	return slices.ContainsFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

// EdgeIndex maps edge IDs to their position in g.Edges.
func (g Graph) EdgeIndex() map[string]int {
	idx := make(map[string]int, len(g.Edges))
	for i, e := range g.Edges {
		idx[e.ID] = i
	}
	return idx
}

// Roots returns the IDs of nodes that are never the target of any edge,
// in node order.
func (g Graph) Roots() []string {
	targeted := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		targeted[e.Target] = true
	}
	var roots []string
	for _, n := range g.Nodes {
		if !targeted[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Float returns a pointer to v. It is a convenience for building nodes and
// edges with optional numeric fields.
func Float(v float64) *float64 { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
