package knox

import (
	"io"

	"github.com/spf13/cobra"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func init() {
	cmd := &cobra.Command{
		Use:       "completion <shell>",
		Short:     "Print a shell completion script",
		Long:      "Print a completion script for bash, zsh, fish or powershell to stdout.",
		ValidArgs: completionShells,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCompletion(cmd.OutOrStdout(), args[0])
		},
		Example: `  source <(knox completion bash)
  knox completion zsh > "${fpath[1]}/_knox"
  knox completion fish > ~/.config/fish/completions/knox.fish`,
	}
	rootCmd.AddCommand(cmd)
}

func writeCompletion(w io.Writer, shell string) error {
	switch shell {
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	default:
		return rootCmd.GenBashCompletionV2(w, true)
	}
}
