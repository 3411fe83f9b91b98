// Package cli implements the stakegraph command-line interface.
//
// The CLI loads ownership graphs from JSON or YAML files (or the built-in
// sample), runs the store operations on them and prints the results. It is
// built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP API over an in-memory store
//   - validate: Check a graph or flat entity list and report every invalid field
//   - propagate: Compute effective ownership and print or export it
//   - trace: Print the ownership chain above an entity
//   - export: Write the canonical JSON form of a graph, optionally filtered
//   - sample: Write the built-in sample dataset
//   - browse: Explore a graph interactively in the terminal
//   - snapshot: Save, list, restore and delete named graph snapshots
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// surfaces operations that had no effect (unknown ids, ignored sandbox
// transitions).
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          appName,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Propagated 12 entities (1ms)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
