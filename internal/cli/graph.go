package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/store"
	"github.com/matzehuels/stakegraph/pkg/trace"
)

// propagateCommand creates the propagate command.
func (c *CLI) propagateCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Compute effective ownership for every entity",
		Long: `Compute effective ownership for every entity.

Ultimate parents (entities nobody owns) hold 100%. Every other entity
receives the sum over its owners of owner's effective ownership times the
direct stake. The result is printed as a table, or written as canonical
JSON with --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPropagate(input, output)
		},
	}

	addInputFlag(cmd, &input)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph with computed values to this file")

	return cmd
}

func (c *CLI) runPropagate(input, output string) error {
	st, err := c.loadStore(input)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	res, err := st.Propagate()
	if err != nil {
		return err
	}
	prog.done("propagated", "entities", len(res.Values))

	if output != "" {
		if err := graphio.ExportJSON(st.Graph(), output); err != nil {
			return err
		}
		printSuccess("Effective ownership computed for %d entities", len(res.Values))
		printFile(output)
		return nil
	}

	fmt.Println(nodeTable(st.Nodes()))
	if len(res.Unreached) > 0 {
		printWarning("%d entities have no path from an ultimate parent: %v", len(res.Unreached), res.Unreached)
	}
	return nil
}

// traceCommand creates the trace command.
func (c *CLI) traceCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "trace <entity-id>",
		Short: "Print every ownership link above an entity",
		Long: `Print every ownership link above an entity.

The trace walks owners breadth-first, so direct owners come before their
own owners. Jointly held entities list every owner.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEntityIDs(&input),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTrace(input, args[0])
		},
	}

	addInputFlag(cmd, &input)
	return cmd
}

func (c *CLI) runTrace(input, id string) error {
	st, err := c.loadStore(input)
	if err != nil {
		return err
	}
	if st.SelectNode(id) == store.NotFound {
		return errors.New(errors.ErrCodeNodeNotFound, "entity %q not found in %s", id, inputName(input))
	}
	printPath(st.Graph(), st.HighlightedPath())
	return nil
}

// printPath prints the entities and links of an ancestor path.
func printPath(g entity.Graph, p trace.Path) {
	nodes := g.NodeIndex()
	edges := g.EdgeIndex()

	if len(p.Nodes) == 0 {
		return
	}
	start := g.Nodes[nodes[p.Nodes[0]]]
	fmt.Println(StyleTitle.Render("Ownership chain for " + start.Label))
	fmt.Println()

	for _, id := range p.Nodes {
		n := g.Nodes[nodes[id]]
		printKeyValue(n.ID, n.Label+"  "+StyleDim.Render(orDash(n.Jurisdiction)))
	}
	if len(p.Edges) == 0 {
		fmt.Println()
		printInfo("%s has no owners", start.Label)
		return
	}

	fmt.Println()
	for _, id := range p.Edges {
		e := g.Edges[edges[id]]
		fmt.Printf("  %s %s %s  %s\n",
			StyleValue.Render(e.Source), StyleDim.Render(iconArrow), StyleValue.Render(e.Target),
			StyleNumber.Render(formatPercent(e.OwnershipPercentage)))
	}
	fmt.Println()
	printStats(len(p.Nodes), len(p.Edges))
}
