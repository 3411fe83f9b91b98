package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for stakegraph.

Besides commands and flags, the scripts complete entity IDs for
"stakegraph trace" (read from --input, or the built-in sample) and
snapshot IDs for "stakegraph snapshot restore" and "snapshot delete".

Bash:
  $ source <(stakegraph completion bash)

Zsh:
  $ stakegraph completion zsh > "${fpath[1]}/_stakegraph"

Fish:
  $ stakegraph completion fish > ~/.config/fish/completions/stakegraph.fish

PowerShell:
  PS> stakegraph completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.out, true)
			case "zsh":
				return root.GenZshCompletion(c.out)
			case "fish":
				return root.GenFishCompletion(c.out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(c.out)
			}
			return nil
		},
	}

	return cmd
}

// completeEntityIDs completes the first argument with entity IDs from the
// graph named by --input, each described by its label.
func (c *CLI) completeEntityIDs(input *string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		st, err := c.loadStore(*input)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var out []cobra.Completion
		for _, n := range st.Nodes() {
			if strings.HasPrefix(n.ID, toComplete) {
				out = append(out, cobra.CompletionWithDesc(n.ID, n.Label))
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeSnapshotIDs completes the first argument with snapshot IDs from
// the configured backend, each described by its name.
func (c *CLI) completeSnapshotIDs(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	snaps, err := c.openSnapshots(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer snaps.Close()

	infos, err := snaps.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []cobra.Completion
	for _, info := range infos {
		if strings.HasPrefix(info.ID, toComplete) {
			out = append(out, cobra.CompletionWithDesc(info.ID, info.Name))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
