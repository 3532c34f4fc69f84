// internal/cli/root.go
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arc-language/buildconf"
	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/installer"
	"github.com/arc-language/buildconf/pkg/platform"
	"github.com/arc-language/buildconf/pkg/registry"
	"github.com/arc-language/buildconf/pkg/shell"
)

var (
	settingsFile  string
	installerName string
	workDir       string
	envFile       string
	ask           bool
	debug         bool

	settings *core.Settings
	initErr  error
	logger   = zerolog.Nop()
	build    = buildInfo{Version: "dev", Commit: "unknown", Date: "unknown"}
)

type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "buildconf",
	Short: "Xmipp build configuration",
	Long: `buildconf - Xmipp build configuration

Probes the host for compilers, libraries, CUDA, MPI and Java, writes
xmipp.conf and verifies it by compiling small test programs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initErr
	},
}

// Execute runs the root command. log is tagged by the caller.
func Execute(ctx context.Context, log zerolog.Logger, version, commit, date string) error {
	logger = log
	build = buildInfo{Version: version, Commit: commit, Date: date}
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default is $HOME/.config/buildconf/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&installerName, "installer", "", "installer backend for missing dependencies (auto, none, conda, apt, ...)")
	rootCmd.PersistentFlags().StringVar(&workDir, "work-dir", "", "directory holding xmipp.conf and the test programs")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with environment overrides")
	rootCmd.PersistentFlags().BoolVar(&ask, "ask", false, "prompt before using detected paths and installing")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(installersCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	initErr = nil

	var err error
	settings, err = core.LoadSettings(settingsFile)
	if err != nil {
		logger.Warn().Err(err).Str("file", settingsFile).Msg("cannot load settings, using defaults")
		settings = core.DefaultSettings()
	}

	// Override settings with flags
	if installerName != "" {
		settings.Installer = installerName
	}
	if workDir != "" {
		settings.WorkDir = workDir
	}
	if ask {
		settings.Ask = true
	}
	if debug {
		settings.Debug = true
	}
	if err := settings.Validate(); err != nil {
		initErr = err
		return
	}

	switch {
	case settings.Debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case settings.LogLevel != "":
		if lvl, err := zerolog.ParseLevel(settings.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	// existing variables win over the file
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			initErr = fmt.Errorf("loading env file: %w", err)
			return
		}
		logger.Debug().Str("file", envFile).Msg("environment overrides loaded")
	}
}

// selectInstaller resolves the configured backend on this host
func selectInstaller(runner shell.Runner) (core.Installer, error) {
	plat, err := platform.Detect()
	if err != nil {
		return nil, fmt.Errorf("detecting platform: %w", err)
	}
	logger.Debug().Str("platform", plat.String()).Strs("available", plat.Available).Msg("platform detected")

	return installer.ForPlatform(plat, settings.Installer, installer.DefaultConfig(settings, runner, logger))
}

func newRegistry() *registry.Registry {
	reg, err := registry.New(settings.RegistryDir)
	if err != nil {
		logger.Warn().Err(err).Msg("dependency registry unavailable")
		return nil
	}
	return reg
}

// newConfigurator wires a Configurator for the current settings. Probes
// still run when no installer can be resolved; installs are just off.
func newConfigurator(cmd *cobra.Command) *buildconf.Configurator {
	dir := settings.WorkDir
	if dir == "" {
		dir = "."
	}
	runner := shell.NewExecRunner(dir, settings.CommandTimeout, logger)

	inst, err := selectInstaller(runner)
	if err != nil {
		logger.Debug().Err(err).Msg("dependency installs disabled")
	}

	return buildconf.New(buildconf.Options{
		Settings:  settings,
		Runner:    runner,
		Installer: inst,
		Registry:  newRegistry(),
		Out:       cmd.OutOrStdout(),
		In:        cmd.InOrStdin(),
		Log:       logger,
	})
}
