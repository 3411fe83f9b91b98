package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/sample"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		input     string
		output    string
		propagate bool
		filters   store.Filters
		compl     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the canonical JSON form of a graph",
		Long: `Write the canonical JSON form of a graph.

Flat entity lists are converted to {nodes, edges} form. With any filter
flag, only matching entities and the links between them are written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters.Compliance = entity.ComplianceStatus(compl)
			if compl != "" && !filters.Compliance.Valid() {
				return errors.New(errors.ErrCodeInvalidInput, "unknown compliance status %q (want one of %v)", compl, entity.ComplianceStatuses)
			}
			return c.runExport(input, output, propagate, filters)
		},
	}

	addInputFlag(cmd, &input)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&propagate, "propagate", false, "recompute effective ownership before writing")
	cmd.Flags().StringVar(&filters.Region, "region", "", "only entities in this region")
	cmd.Flags().StringVar(&filters.EntityType, "type", "", "only entities of this type")
	cmd.Flags().StringVar(&compl, "compliance", "", "only entities with this compliance status")

	return cmd
}

func (c *CLI) runExport(input, output string, propagate bool, filters store.Filters) error {
	st, err := c.loadStore(input)
	if err != nil {
		return err
	}
	if propagate {
		if _, err := st.Propagate(); err != nil {
			return err
		}
	}
	st.SetFilters(filters)

	data, err := graphio.MarshalJSON(st.Filtered())
	if err != nil {
		return err
	}
	if err := c.writeOutput(output, data); err != nil {
		return err
	}
	if output != "" {
		printSuccess("Exported graph")
		printStats(len(st.FilteredNodes()), len(st.FilteredEdges()))
		printFile(output)
	}
	return nil
}

// sampleCommand creates the sample command.
func (c *CLI) sampleCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write the built-in sample dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := sample.Graph()
			if err != nil {
				return err
			}
			data, err := graphio.MarshalJSON(g)
			if err != nil {
				return err
			}
			if err := c.writeOutput(output, data); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote sample group structure")
				printStats(len(g.Nodes), len(g.Edges))
				printFile(output)
				printNextStep("Explore it", "stakegraph browse -i "+output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
