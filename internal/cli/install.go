// internal/cli/install.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arc-language/buildconf/pkg/console"
	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/shell"
)

var installVersion string

var installCmd = &cobra.Command{
	Use:   "install [dependency...]",
	Short: "Install build dependencies",
	Long: `Install build dependencies by their canonical name using the configured
or auto-detected installer.

Examples:
  buildconf install fftw hdf5
  buildconf install openjdk --installer=conda
  buildconf install hdf5 --installer=nix --version=1.12.2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installVersion, "version", "", "specific version to install")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := console.New(cmd.OutOrStdout())

	dir := settings.WorkDir
	if dir == "" {
		dir = "."
	}
	inst, err := selectInstaller(shell.NewExecRunner(dir, settings.CommandTimeout, logger))
	if err != nil {
		return err
	}
	reg := newRegistry()

	out.Plain("Using installer: %s", inst.Name())

	var failed []string
	for _, dep := range args {
		pkg := dep
		if reg != nil {
			name, err := reg.Resolve(dep, inst.Name())
			if err != nil {
				out.Red("✗ %v", err)
				failed = append(failed, dep)
				continue
			}
			pkg = name
		}

		out.Plain("\nInstalling %s (%s)...", dep, pkg)
		opts := &core.InstallOptions{
			Version:    installVersion,
			VerifyHash: true,
		}
		installed, err := inst.Install(ctx, pkg, opts)
		if err != nil {
			out.Red("✗ Failed to install %s: %v", dep, err)
			failed = append(failed, dep)
			continue
		}

		out.Green("✓ Successfully installed %s at %s", dep, installed.Prefix)
		if len(installed.LibDirs) > 0 {
			out.Plain("  libraries: %s", strings.Join(installed.LibDirs, " "))
		}
		if len(installed.IncludeDirs) > 0 {
			out.Plain("  headers:   %s", strings.Join(installed.IncludeDirs, " "))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d dependencies failed: %s", len(failed), len(args), strings.Join(failed, ", "))
	}
	return nil
}
