package cli

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/LLNL/CallFlow-sub002/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for callflow.

  bash:        source <(callflow completion bash)
  zsh:         callflow completion zsh > "${fpath[1]}/_callflow"
  fish:        callflow completion fish > ~/.config/fish/completions/callflow.fish
  powershell:  callflow completion powershell | Out-String | Invoke-Expression

Completion covers subcommands and flags, including --format and
--edge-weight values.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// registerValueCompletions completes the enumerated flag values of cmd.
func registerValueCompletions(cmd *cobra.Command) {
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(slices.Sorted(maps.Keys(pipeline.ValidFormats)), cobra.ShellCompDirectiveNoFileComp))
	}
	if cmd.Flags().Lookup("edge-weight") != nil {
		_ = cmd.RegisterFlagCompletionFunc("edge-weight", cobra.FixedCompletions(slices.Sorted(maps.Keys(pipeline.ValidEdgeWeights)), cobra.ShellCompDirectiveNoFileComp))
	}
}
