package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/shell"
)

// Conda installs into the active environment ($CONDA_PREFIX)
type Conda struct {
	cfg *Config
}

func newConda(cfg *Config) *Conda { return &Conda{cfg: cfg} }

func (c *Conda) Name() string { return "conda" }

func (c *Conda) IsAvailable() bool {
	return shell.CheckProgram(c.cfg.Getenv, "conda") && c.cfg.Getenv("CONDA_PREFIX") != ""
}

func (c *Conda) Install(ctx context.Context, pkg string, opts *core.InstallOptions) (*core.Installation, error) {
	prefix := c.cfg.Getenv("CONDA_PREFIX")
	if prefix == "" {
		return nil, fmt.Errorf("%w: no active conda environment", core.ErrInstallerUnavailable)
	}

	spec := pkg
	if opts != nil && opts.Version != "" {
		spec = pkg + "=" + opts.Version
	}
	command := fmt.Sprintf("conda install -y -c conda-forge -p %s %s", shellQuote(prefix), shellQuote(spec))

	c.cfg.Log.Info().Str("backend", "conda").Str("package", spec).Str("prefix", prefix).Msg("installing")
	if out, err := c.cfg.Runner.Run(ctx, command); err != nil {
		return nil, commandError(command, out, err)
	}
	return installation(pkg, "conda", prefix), nil
}

// Brew installs Homebrew formulae; each keg-only formula gets its own prefix
type Brew struct {
	cfg *Config
}

func newBrew(cfg *Config) *Brew { return &Brew{cfg: cfg} }

func (b *Brew) Name() string { return "brew" }

func (b *Brew) IsAvailable() bool {
	return shell.CheckProgram(b.cfg.Getenv, "brew")
}

func (b *Brew) Install(ctx context.Context, pkg string, opts *core.InstallOptions) (*core.Installation, error) {
	formula := pkg
	if opts != nil && opts.Version != "" {
		formula = pkg + "@" + opts.Version
	}

	command := "brew install " + shellQuote(formula)
	b.cfg.Log.Info().Str("backend", "brew").Str("package", formula).Msg("installing")
	if out, err := b.cfg.Runner.Run(ctx, command); err != nil {
		return nil, commandError(command, out, err)
	}

	out, err := b.cfg.Runner.Run(ctx, "brew --prefix "+shellQuote(formula))
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("locating brew prefix of %s: %v", formula, err)
	}
	return installation(pkg, "brew", strings.TrimSpace(out[len(out)-1])), nil
}
