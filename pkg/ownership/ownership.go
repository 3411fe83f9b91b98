package ownership

import (
	"strings"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
)

// RootOwnership is the effective ownership assigned to root nodes.
const RootOwnership = 100.0

// Result holds the outcome of a propagation pass.
type Result struct {
	Values    map[string]float64 // Effective ownership by node ID; unreached nodes are absent
	Roots     []string           // Nodes never targeted by an edge, in node order
	Unreached []string           // Non-root nodes that received no value, in node order
}

// Value returns the effective ownership of id and whether one was computed.
func (r Result) Value(id string) (float64, bool) {
	v, ok := r.Values[id]
	return v, ok
}

// Compute propagates effective ownership from the roots of g.
//
// It returns an error with code OWNERSHIP_CYCLE if the ownership edges form
// a cycle. The graph is not modified.
func Compute(g entity.Graph) (Result, error) {
	index := g.NodeIndex()
	targeted := make(map[string]bool, len(g.Edges))
	outgoing := make(map[string][]entity.Edge, len(g.Nodes))
	inDegree := make(map[string]int, len(g.Nodes))

	for _, e := range g.Edges {
		targeted[e.Target] = true
		_, okS := index[e.Source]
		_, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		outgoing[e.Source] = append(outgoing[e.Source], e)
		inDegree[e.Target]++
	}

	res := Result{Values: make(map[string]float64, len(g.Nodes))}
	queue := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if !targeted[n.ID] {
			res.Roots = append(res.Roots, n.ID)
			res.Values[n.ID] = RootOwnership
		}
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	processed := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		processed++

		own, known := res.Values[curr]
		for _, e := range outgoing[curr] {
			if known {
				res.Values[e.Target] += own * e.Stake() / 100
			}
			inDegree[e.Target]--
			if inDegree[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	if processed < len(index) {
		return Result{}, cycleError(FindCycle(g))
	}

	for _, n := range g.Nodes {
		if _, ok := res.Values[n.ID]; !ok {
			res.Unreached = append(res.Unreached, n.ID)
		}
	}
	return res, nil
}

// Apply computes effective ownership and stores it on the nodes of g.
// Nodes that receive no value have their EffectiveOwnership cleared.
func Apply(g *entity.Graph) (Result, error) {
	res, err := Compute(*g)
	if err != nil {
		return Result{}, err
	}
	for i := range g.Nodes {
		if v, ok := res.Values[g.Nodes[i].ID]; ok {
			g.Nodes[i].EffectiveOwnership = entity.Float(v)
		} else {
			g.Nodes[i].EffectiveOwnership = nil
		}
	}
	return res, nil
}

// FindCycle returns the node IDs of one ownership cycle in g, with the first
// node repeated at the end, or nil if g is acyclic. Edges with a missing
// endpoint are ignored.
func FindCycle(g entity.Graph) []string {
	const (
		white = iota
		gray
		black
	)

	index := g.NodeIndex()
	children := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := index[e.Source]; !ok {
			continue
		}
		if _, ok := index[e.Target]; !ok {
			continue
		}
		children[e.Source] = append(children[e.Source], e.Target)
	}

	color := make(map[string]int, len(g.Nodes))
	var stack, cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range children[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == child {
						cycle = append(append(cycle, stack[i:]...), child)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white && dfs(n.ID) {
			return cycle
		}
	}
	return nil
}

// Check returns an OWNERSHIP_CYCLE error naming one cycle if g has any.
func Check(g entity.Graph) error {
	if cycle := FindCycle(g); cycle != nil {
		return cycleError(cycle)
	}
	return nil
}

func cycleError(cycle []string) error {
	if len(cycle) == 0 {
		return errors.New(errors.ErrCodeOwnershipCycle, "ownership edges form a cycle")
	}
	return errors.New(errors.ErrCodeOwnershipCycle, "ownership cycle: %s", strings.Join(cycle, " -> "))
}
