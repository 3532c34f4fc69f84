// internal/cli/config.go
package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNotVerified = errors.New("configuration check failed")

var configCheck bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Probe the host and write xmipp.conf",
	Long: `Create xmipp.conf from scratch. Values already present in the
environment are written verbatim; everything else is probed.

Examples:
  buildconf config
  buildconf config --check
  CXX=g++-10 buildconf config --installer=none`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify xmipp.conf by compiling test programs",
	Long: `Read xmipp.conf and compile small programs against every configured
library. VERIFIED is set once the check passes; a CUDA failure only
turns CUDA off.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	configCmd.Flags().BoolVar(&configCheck, "check", false, "verify the new configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newConfigurator(cmd)

	if err := c.Create(ctx); err != nil {
		return err
	}
	if !configCheck {
		return nil
	}

	ok, err := c.Check(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotVerified
	}
	return c.Write()
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newConfigurator(cmd)

	if err := c.Read(""); err != nil {
		return err
	}
	ok, err := c.Check(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotVerified
	}
	return c.Write()
}
