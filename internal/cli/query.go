// internal/cli/query.go
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
)

var envShell bool

var getCmd = &cobra.Command{
	Use:   "get KEY...",
	Short: "Print keys of xmipp.conf",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGet,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every key of xmipp.conf",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the environment recorded by the last config",
	Long: `Print the environment file written by 'buildconf config'.

Examples:
  buildconf env
  eval "$(buildconf env --shell)"`,
	Args: cobra.NoArgs,
	RunE: runEnv,
}

func init() {
	envCmd.Flags().BoolVar(&envShell, "shell", false, "print sh export lines")
}

func runGet(cmd *cobra.Command, args []string) error {
	c := newConfigurator(cmd)
	if err := c.Read(""); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, key := range args {
		v, ok := c.Config().Get(key)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrUnknownKey, key)
		}
		fmt.Fprintf(out, "%s=%s\n", key, v)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	c := newConfigurator(cmd)
	if err := c.Read(""); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, key := range c.Config().Keys() {
		fmt.Fprintf(out, "%s=%s\n", key, c.Config().Value(key))
	}
	return nil
}

func runEnv(cmd *cobra.Command, args []string) error {
	c := newConfigurator(cmd)
	vars, err := env.ReadFile(c.EnvPath())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if envShell {
		fmt.Fprint(out, env.Script(vars))
		return nil
	}
	data, err := json.MarshalIndent(vars, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding environment: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
