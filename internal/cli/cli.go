package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stakegraph/internal/config"
	"github.com/matzehuels/stakegraph/pkg/buildinfo"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/sample"
	"github.com/matzehuels/stakegraph/pkg/snapshot"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "stakegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
	out        io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stakegraph models corporate ownership structures",
		Long: `Stakegraph is a tool for modelling legal-entity ownership structures:
it validates entity graphs, propagates effective ownership from the
ultimate parents, traces ownership chains and serves the graph over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/stakegraph/config.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.propagateCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.sampleCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// loadStore builds a store from input. An empty input loads the built-in
// sample; "-" reads JSON from stdin.
func (c *CLI) loadStore(input string) (*store.Store, error) {
	payload, err := c.readPayload(input)
	if err != nil {
		return nil, err
	}
	st := store.New(store.WithLogger(c.Logger))
	if err := st.Load(payload); err != nil {
		return nil, err
	}
	c.Logger.Debug("graph loaded", "input", inputName(input), "nodes", len(st.Nodes()), "edges", len(st.Edges()))
	return st, nil
}

func (c *CLI) readPayload(input string) (any, error) {
	switch input {
	case "":
		return sample.Payload()
	case "-":
		return graphio.Decode(os.Stdin, graphio.FormatJSON)
	default:
		return graphio.ImportFile(input)
	}
}

// openSnapshots connects to the configured snapshot backend, with a spinner
// for network backends.
func (c *CLI) openSnapshots(ctx context.Context) (snapshot.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.SnapshotOptions()
	if opts.Backend == snapshot.BackendMemory || opts.Backend == snapshot.BackendFile {
		return snapshot.Open(ctx, opts)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Connecting to %s...", opts.Backend))
	spinner.Start()
	st, err := snapshot.Open(ctx, opts)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Could not connect to %s", opts.Backend))
		return nil, err
	}
	spinner.Stop()
	return st, nil
}

// writeOutput writes data to path, or to the CLI's stdout when path is empty.
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := c.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func inputName(input string) string {
	switch input {
	case "":
		return "built-in sample"
	case "-":
		return "stdin"
	default:
		return input
	}
}

// addInputFlag registers the shared --input flag.
func addInputFlag(cmd *cobra.Command, input *string) {
	cmd.Flags().StringVarP(input, "input", "i", "", "graph file (.json, .yaml) or - for stdin; default: built-in sample")
}

// storeFromGraph builds a store holding a snapshot's graph.
func (c *CLI) storeFromGraph(snap snapshot.Snapshot) (*store.Store, error) {
	st := store.New(store.WithLogger(c.Logger))
	if err := st.LoadGraph(snap.Graph); err != nil {
		return nil, err
	}
	return st, nil
}
