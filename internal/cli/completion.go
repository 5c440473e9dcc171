package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runCompletion writes the completion script for shell to the command's output.
//
//	source <(multikube --completion bash)
//	multikube --completion zsh > "${fpath[1]}/_multikube"
//	multikube --completion fish | source
//	multikube --completion powershell | Out-String | Invoke-Expression
func runCompletion(cmd *cobra.Command, shell string) error {
	root := cmd.Root()
	out := cmd.OutOrStdout()

	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	default:
		return fmt.Errorf("unsupported shell type %q (supported: bash, zsh, fish, powershell)", shell)
	}
}
