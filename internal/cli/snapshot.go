package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/snapshot"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage named graph snapshots",
		Long: `Manage named graph snapshots.

Snapshots are stored in the backend selected by [snapshot] in the config
file or STAKEGRAPH_SNAPSHOT_BACKEND: file (default), memory, redis or mongo.`,
	}

	cmd.AddCommand(c.snapshotSaveCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotRestoreCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

// snapshotSaveCommand creates the "snapshot save" subcommand.
func (c *CLI) snapshotSaveCommand() *cobra.Command {
	var input, name string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a graph as a new snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.loadStore(input)
			if err != nil {
				return err
			}
			snaps, err := c.openSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			defer snaps.Close()

			snap := snapshot.New(name, st.Graph())
			if err := snaps.Save(cmd.Context(), snap); err != nil {
				return err
			}
			printSuccess("Saved snapshot %s", StyleHighlight.Render(snap.Name))
			printKeyValue("ID", snap.ID)
			printKeyValue("Backend", snaps.Backend())
			printStats(len(snap.Graph.Nodes), len(snap.Graph.Edges))
			return nil
		},
	}

	addInputFlag(cmd, &input)
	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name (default: short id)")
	return cmd
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := c.openSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			defer snaps.Close()

			infos, err := snaps.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No snapshots in %s storage", snaps.Backend())
				printNextStep("Create one", "stakegraph snapshot save --name baseline")
				return nil
			}
			fmt.Println(snapshotTable(infos))
			return nil
		},
	}
}

func snapshotTable(infos []snapshot.Info) string {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			info.ID,
			info.Name,
			info.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(info.Nodes),
			strconv.Itoa(info.Edges),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Created", "Entities", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 { // header
				return base.Inherit(styleHeader)
			}
			if col == 0 {
				return base.Foreground(colorDim)
			}
			return base
		}).
		Render()
}

// snapshotRestoreCommand creates the "snapshot restore" subcommand.
func (c *CLI) snapshotRestoreCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "restore <id>",
		Short:             "Write a snapshot's graph as canonical JSON",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSnapshotIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotRestore(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *CLI) runSnapshotRestore(ctx context.Context, id, output string) error {
	snaps, err := c.openSnapshots(ctx)
	if err != nil {
		return err
	}
	defer snaps.Close()

	snap, err := snaps.Get(ctx, id)
	if err != nil {
		return err
	}
	// Loading through a store re-checks the stored graph.
	st, err := c.storeFromGraph(snap)
	if err != nil {
		return err
	}
	data, err := graphio.MarshalJSON(st.Graph())
	if err != nil {
		return err
	}
	if err := c.writeOutput(output, data); err != nil {
		return err
	}
	if output != "" {
		printSuccess("Restored snapshot %s", StyleHighlight.Render(snap.Name))
		printFile(output)
	}
	return nil
}

// snapshotDeleteCommand creates the "snapshot delete" subcommand.
func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>",
		Short:             "Delete a snapshot",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSnapshotIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := c.openSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			defer snaps.Close()

			if err := snaps.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted snapshot %s", args[0])
			return nil
		},
	}
}
