// buildconf.go
package buildconf

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arc-language/buildconf/pkg/console"
	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/probe"
	"github.com/arc-language/buildconf/pkg/registry"
	"github.com/arc-language/buildconf/pkg/shell"
)

// Re-export core types for convenience
type (
	Config       = core.Config
	Flag         = core.Flag
	Settings     = core.Settings
	Installer    = core.Installer
	Installation = core.Installation
	SearchPaths  = probe.SearchPaths
)

// Re-export file name defaults
const (
	DefaultConfigFile   = core.DefaultConfigFile
	DefaultTemplateFile = core.DefaultTemplateFile
	DefaultEnvFile      = core.DefaultEnvFile
)

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return core.DefaultSettings()
}

// Options configures a Configurator. Zero fields get defaults.
type Options struct {
	Settings *core.Settings

	// Runner executes the probe commands. It must run them in the work
	// dir; the default is an ExecRunner there.
	Runner shell.Runner

	// Installer installs missing dependencies; nil disables installs
	Installer core.Installer
	Registry  *registry.Registry

	Out    io.Writer // diagnostics, stdout by default
	In     io.Reader // prompt answers, stdin by default
	Getenv func(string) string
	Log    zerolog.Logger

	// Search overrides the fallback search locations
	Search *probe.SearchPaths
}

// Configurator creates, checks and persists xmipp.conf
type Configurator struct {
	settings *core.Settings
	workDir  string

	config *core.Config
	env    *env.Log

	runner    shell.Runner
	installer core.Installer
	registry  *registry.Registry
	out       *console.Printer
	prompt    *shell.Prompter
	getenv    func(string) string
	log       zerolog.Logger
	search    probe.SearchPaths
}

// New creates a Configurator. The config starts seeded from the
// environment, as if nothing had been read yet.
func New(opts Options) *Configurator {
	settings := opts.Settings
	if settings == nil {
		settings = core.DefaultSettings()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	workDir := settings.WorkDir
	if workDir == "" {
		workDir = "."
	}

	runner := opts.Runner
	if runner == nil {
		runner = shell.NewExecRunner(workDir, settings.CommandTimeout, opts.Log)
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	search := probe.DefaultSearchPaths()
	if opts.Search != nil {
		search = *opts.Search
	}

	out := console.New(opts.Out)
	return &Configurator{
		settings:  settings,
		workDir:   workDir,
		config:    core.FromEnv(getenv),
		env:       env.NewLog(),
		runner:    runner,
		installer: opts.Installer,
		registry:  opts.Registry,
		out:       out,
		prompt:    shell.NewPrompter(in, out),
		getenv:    getenv,
		log:       opts.Log,
		search:    search,
	}
}

// Config returns the current configuration
func (c *Configurator) Config() *core.Config {
	return c.config
}

// Environment returns the environment updates recorded by Create
func (c *Configurator) Environment() *env.Log {
	return c.env
}

// ConfigPath is where Write stores xmipp.conf
func (c *Configurator) ConfigPath() string {
	return filepath.Join(c.workDir, c.settings.ConfigFile)
}

// EnvPath is where Create stores the environment updates
func (c *Configurator) EnvPath() string {
	return filepath.Join(c.workDir, c.settings.EnvFile)
}

func (c *Configurator) session() *probe.Session {
	s := probe.NewSession(c.config, c.runner)
	s.Env = c.env
	s.Prompt = c.prompt
	s.Out = c.out
	s.Log = c.log
	s.Getenv = c.getenv
	s.Installer = c.installer
	s.Registry = c.registry
	s.WorkDir = c.workDir
	s.Ask = c.settings.Ask && c.prompt.Interactive()
	s.CI = probe.IsCI(c.getenv)
	s.Python = c.settings.Python
	s.IncludeDirs = c.settings.IncludeDirs
	s.Search = c.search
	return s
}

// Create probes the host from scratch and writes xmipp.conf and the
// environment file. Nothing is written when a probe fails fatally.
func (c *Configurator) Create(ctx context.Context) error {
	c.out.Plain("Configuring -----------------------------------------")
	c.config = core.FromEnv(c.getenv)
	c.env = env.NewLog()

	if c.config.Verified.IsUnset() {
		c.config.Verified = core.FlagFalse
	}

	s := c.session()
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"compiler", s.ConfigureCompiler},
		{"cuda", s.ConfigureCUDA},
		{"mpi", s.ConfigureMPI},
		{"java", s.ConfigureJava},
	}
	for _, step := range steps {
		c.log.Debug().Str("probe", step.name).Msg("configuring")
		if err := step.run(ctx); err != nil {
			return &Error{Op: "configure", Key: step.name, Err: err}
		}
	}

	if err := c.Write(); err != nil {
		return err
	}
	if err := c.env.Write(c.EnvPath()); err != nil {
		return &Error{Op: "write", Key: c.settings.EnvFile, Err: err}
	}
	c.out.Blue("Configuration completed.....")
	return nil
}

// Check verifies the configuration by compiling test programs. It runs
// nothing when VERIFIED is already true. A CUDA failure only disables
// CUDA; any other failure returns false.
func (c *Configurator) Check(ctx context.Context) (bool, error) {
	c.out.Plain("Checking configuration ------------------------------")

	if c.config.Verified.IsTrue() {
		c.out.Blue("'%s' is already checked. Set VERIFIED=False to re-checked", c.settings.ConfigFile)
		return true, nil
	}

	s := c.session()

	ok, err := s.CheckCompiler(ctx)
	if err != nil {
		return false, &Error{Op: "check", Key: "compiler", Err: err}
	}
	if !ok {
		c.out.Red("Cannot compile")
		c.out.Plain("Possible solutions")
		c.out.Plain("In Ubuntu: sudo apt-get -y install libsqlite3-dev libfftw3-dev libhdf5-dev libopencv-dev python3-dev " +
			"python3-numpy python3-scipy python3-mpi4py")
		c.out.Plain("In Manjaro: sudo pacman -Syu install hdf5 python3-numpy python3-scipy --noconfirm")
		c.out.Plain("Please, see 'https://scipion-em.github.io/docs/docs/scipion-modes/" +
			"install-from-sources.html#step-2-dependencies' for more information about libraries dependencies.")
		c.out.Plain("\nRemember to re-run './xmipp config' after installing libraries in order to " +
			"take into account the new system configuration.")
		return false, nil
	}

	if ok, err = s.CheckMPI(ctx); err != nil {
		return false, &Error{Op: "check", Key: "mpi", Err: err}
	} else if !ok {
		c.out.Red("Cannot compile with MPI or use it")
		return false, nil
	}

	if ok, err = s.CheckJava(ctx); err != nil {
		return false, &Error{Op: "check", Key: "java", Err: err}
	} else if !ok {
		c.out.Red("Cannot compile with Java")
		return false, nil
	}

	if ok, err = s.CheckCUDA(ctx); err != nil {
		return false, &Error{Op: "check", Key: "cuda", Err: err}
	} else if !ok {
		c.out.Red("Cannot compile with NVCC, continuing without CUDA")
		c.config.CUDA = core.FlagFalse
	}

	c.config.Verified = core.FlagTrue
	return true, nil
}

// Read loads a config file. A directory means its xmipp.conf, or its
// template when there is none. A missing file keeps the current values.
func (c *Configurator) Read(path string) error {
	if path == "" {
		path = c.workDir
	}
	path = core.ResolveConfigPath(path, c.settings.ConfigFile, c.settings.TemplateFile)

	values, found, err := core.ReadFile(path)
	if err != nil {
		if errors.Is(err, core.ErrMissingSection) {
			c.out.Red("Cannot find section %s in %s", core.Section, path)
		}
		return &Error{Op: "read", Key: path, Err: err}
	}
	if !found {
		c.log.Debug().Str("file", path).Msg("no config file, keeping current values")
		return nil
	}
	c.config.Load(values)
	return nil
}

// Write stores the config in the work dir
func (c *Configurator) Write() error {
	if err := core.WriteFile(c.config, c.ConfigPath()); err != nil {
		return &Error{Op: "write", Key: c.settings.ConfigFile, Err: err}
	}
	c.log.Debug().Str("file", c.ConfigPath()).Msg("config written")
	return nil
}
