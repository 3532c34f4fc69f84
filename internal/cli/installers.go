// internal/cli/installers.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/buildconf/pkg/installer"
	"github.com/arc-language/buildconf/pkg/platform"
)

var installersCmd = &cobra.Command{
	Use:   "installers",
	Short: "List available installer backends",
	Long:  `List the installer backends usable on this system.`,
	Args:  cobra.NoArgs,
	RunE:  runInstallers,
}

func runInstallers(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	plat, err := platform.Detect()
	if err != nil {
		return fmt.Errorf("detecting platform: %w", err)
	}

	fmt.Fprintf(out, "Platform: %s/%s", plat.OS, plat.Arch)
	if plat.Distro != "" {
		fmt.Fprintf(out, " (%s)", plat.Distro)
	}
	fmt.Fprintf(out, "\n\nAvailable installers:\n")
	for _, name := range plat.Available {
		marker := " "
		if name == plat.Preferred {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, name)
	}

	if plat.Preferred != "" {
		fmt.Fprintf(out, "\n* = used by --installer=auto\n")
	}

	fmt.Fprintf(out, "\nKnown installers: %v\n", installer.Names())
	return nil
}
