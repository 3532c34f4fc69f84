// internal/cli/deps.go
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arc-language/buildconf/pkg/registry"
)

var depsCmd = &cobra.Command{
	Use:   "deps [name]",
	Short: "Show the dependency registry",
	Long:  `List the dependencies buildconf can install, or the package names of one of them per installer.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeps,
}

var (
	syncURL    string
	syncBranch string
)

var depsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update registry overrides from a git repository",
	Long: `Clone the registry repository and copy its deps/<name>/index.toml
entries into registry_dir, where they take precedence over the built-in table.`,
	Args: cobra.NoArgs,
	RunE: runDepsSync,
}

func init() {
	depsSyncCmd.Flags().StringVar(&syncURL, "url", registry.DefaultRepoURL, "registry repository")
	depsSyncCmd.Flags().StringVar(&syncBranch, "branch", registry.DefaultBranch, "branch to clone")
	depsCmd.AddCommand(depsSyncCmd)
}

func runDepsSync(cmd *cobra.Command, args []string) error {
	updated, err := registry.Sync(cmd.Context(), settings.RegistryDir, registry.SyncOptions{
		URL:    syncURL,
		Branch: syncBranch,
		Depth:  1,
		Log:    logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d dependencies in %s\n", len(updated), settings.RegistryDir)
	return nil
}

func runDeps(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	reg, err := registry.New(settings.RegistryDir)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, name := range reg.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	entry, err := reg.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Dependency: %s\n", entry.Name)
	if len(entry.Libs) > 0 {
		fmt.Fprintf(out, "Libraries: %s\n", strings.Join(entry.Libs, " "))
	}
	if len(entry.Bins) > 0 {
		fmt.Fprintf(out, "Programs: %s\n", strings.Join(entry.Bins, " "))
	}

	backends := make([]string, 0, len(entry.Backends))
	for b := range entry.Backends {
		backends = append(backends, b)
	}
	sort.Strings(backends)
	fmt.Fprintf(out, "Packages:\n")
	for _, b := range backends {
		fmt.Fprintf(out, "  %-8s %s\n", b, entry.Backends[b])
	}
	return nil
}
