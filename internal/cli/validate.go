package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a graph file and report every invalid field",
		Long: `Check a graph file without changing anything.

The file may hold a {"nodes": [...], "edges": [...]} graph or a flat list
of entities referencing their parent via parentId. Every invalid field is
reported with its path, e.g. nodes[2].label. Ownership cycles are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args[0])
		},
	}
}

func (c *CLI) runValidate(input string) error {
	prog := newProgress(c.Logger)
	st, err := c.loadStore(input)
	if err != nil {
		if fields := validate.Fields(err); len(fields) > 0 {
			printError("%s: %d invalid field(s)", inputName(input), len(fields))
			for _, f := range fields {
				printDetail("%s", f.String())
			}
			return fmt.Errorf("%s failed validation", inputName(input))
		}
		if errors.Is(err, errors.ErrCodeOwnershipCycle) {
			printError("%s", errors.UserMessage(err))
			return fmt.Errorf("%s failed validation", inputName(input))
		}
		return err
	}
	prog.done("validated", "input", inputName(input))

	g := st.Graph()
	printSuccess("%s is valid", inputName(input))
	printStats(len(g.Nodes), len(g.Edges))
	if roots := g.Roots(); len(roots) > 0 {
		printDetail("ultimate parents: %v", roots)
	}
	return nil
}
