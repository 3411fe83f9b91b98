package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stakegraph/internal/server"
	"github.com/matzehuels/stakegraph/pkg/observability"
	"github.com/matzehuels/stakegraph/pkg/sample"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		input      string
		withSample bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API over an in-memory ownership graph.

The store starts empty unless --input or --sample is given (or load_sample
is set in the config). Snapshots are kept in the configured backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, input, withSample)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "graph file to load on start")
	cmd.Flags().BoolVar(&withSample, "sample", false, "load the built-in sample on start")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, input string, withSample bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		c.SetLogLevel(cfg.Level())
	}

	installLogHooks(c.Logger)
	defer observability.Reset()

	st := store.New(store.WithLogger(c.Logger))
	switch {
	case input != "":
		payload, err := c.readPayload(input)
		if err != nil {
			return err
		}
		if err := st.Load(payload); err != nil {
			return err
		}
	case withSample || cfg.LoadSample:
		g, err := sample.Graph()
		if err != nil {
			return err
		}
		if err := st.LoadGraph(g); err != nil {
			return err
		}
	}
	if !cfg.Filters.Empty() {
		st.SetFilters(cfg.Filters)
	}

	snaps, err := c.openSnapshots(ctx)
	if err != nil {
		return err
	}
	defer snaps.Close()

	c.Logger.Info("starting", "addr", addr, "entities", len(st.Nodes()), "snapshots", snaps.Backend())
	srv := server.New(st, snaps, server.WithLogger(c.Logger))
	return srv.Run(ctx, addr, cfg.Server.ShutdownTimeout)
}

// =============================================================================
// Logging Hooks
// =============================================================================

// storeLogHooks reports store events through the CLI logger.
type storeLogHooks struct {
	logger *log.Logger
}

// snapshotLogHooks reports snapshot storage events through the CLI logger.
type snapshotLogHooks struct {
	logger *log.Logger
}

func installLogHooks(l *log.Logger) {
	observability.SetStoreHooks(&storeLogHooks{logger: l})
	observability.SetSnapshotHooks(&snapshotLogHooks{logger: l})
}

func (h *storeLogHooks) OnLoad(nodes, edges int, d time.Duration, err error) {
	if err != nil {
		return // the store logs rejected loads itself
	}
	h.logger.Info("graph replaced", "entities", nodes, "links", edges, "elapsed", d.Round(time.Microsecond))
}

func (h *storeLogHooks) OnMutation(op, outcome string) {
	h.logger.Debug("mutation", "op", op, "outcome", outcome)
}

func (h *storeLogHooks) OnPropagate(nodes int, d time.Duration, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("propagated", "entities", nodes, "elapsed", d.Round(time.Microsecond))
}

func (h *snapshotLogHooks) OnSave(_ context.Context, backend string, size int, err error) {
	if err != nil {
		h.logger.Error("snapshot save failed", "backend", backend, "err", err)
		return
	}
	h.logger.Debug("snapshot saved", "backend", backend, "bytes", size)
}

func (h *snapshotLogHooks) OnLoad(_ context.Context, backend string, err error) {
	if err != nil {
		h.logger.Debug("snapshot read failed", "backend", backend, "err", err)
	}
}

func (h *snapshotLogHooks) OnCacheHit(_ context.Context, backend string) {
	h.logger.Debug("snapshot cache hit", "backend", backend)
}

func (h *snapshotLogHooks) OnCacheMiss(_ context.Context, backend string) {
	h.logger.Debug("snapshot cache miss", "backend", backend)
}
