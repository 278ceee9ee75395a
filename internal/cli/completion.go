package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/registry"
	"github.com/matzehuels/pipebuilder/pkg/render/nodelink"
)

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pipebuilder.

Bash:
  $ source <(pipebuilder completion bash)

Zsh:
  $ pipebuilder completion zsh > "${fpath[1]}/_pipebuilder"

Fish:
  $ pipebuilder completion fish > ~/.config/fish/completions/pipebuilder.fish

PowerShell:
  PS> pipebuilder completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}

// completeKinds suggests built-in template kinds.
func completeKinds(_ *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, kind := range registry.Builtin().Kinds() {
		if strings.HasPrefix(kind, prefix) {
			out = append(out, kind)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats suggests render formats.
func completeFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{nodelink.FormatSVG, nodelink.FormatPNG, nodelink.FormatDOT}, cobra.ShellCompDirectiveNoFileComp
}
