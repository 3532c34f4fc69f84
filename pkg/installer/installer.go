// Package installer provides the package-manager backends used to
// install missing build dependencies.
package installer

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/platform"
	"github.com/arc-language/buildconf/pkg/shell"
)

// Config holds configuration shared by all backends
type Config struct {
	// InstallPath is where the nix backend unpacks packages
	InstallPath string

	// CacheURL overrides the nix binary cache
	CacheURL string

	// DebMirror overrides the apt mirror of the dpkg backend
	DebMirror string

	// Timeout for network operations
	Timeout time.Duration

	// Sudo prefixes system package manager commands with sudo
	Sudo bool

	// Root is the filesystem root system packages land in
	Root string

	Runner shell.Runner
	Getenv func(string) string
	Log    zerolog.Logger
}

// DefaultConfig derives a backend configuration from settings
func DefaultConfig(s *core.Settings, runner shell.Runner, log zerolog.Logger) *Config {
	return &Config{
		InstallPath: s.InstallPath,
		CacheURL:    s.CacheURL,
		DebMirror:   s.DebMirror,
		Timeout:     s.CommandTimeout,
		Sudo:        os.Geteuid() != 0 && shell.CheckProgram(os.Getenv, "sudo"),
		Root:        "/",
		Runner:      runner,
		Getenv:      os.Getenv,
		Log:         log,
	}
}

// Get creates the backend with the given name
func Get(backend string, cfg *Config) (core.Installer, error) {
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}
	if cfg.Root == "" {
		cfg.Root = "/"
	}

	switch backend {
	case "nix":
		return NewNix(cfg), nil
	case "dpkg":
		return NewDpkg(cfg), nil
	case "conda":
		return newConda(cfg), nil
	case "brew":
		return newBrew(cfg), nil
	case "apt", "dnf", "pacman", "zypper", "apk":
		return newSystem(backend, cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend '%s'", core.ErrInstallerUnavailable, backend)
	}
}

// Names lists every backend Get understands
func Names() []string {
	return []string{"conda", "apt", "dnf", "pacman", "zypper", "apk", "brew", "nix", "dpkg"}
}

// Available returns the usable backends among those the platform detected
func Available(p *platform.Platform, cfg *Config) []core.Installer {
	var out []core.Installer
	for _, name := range p.Available {
		i, err := Get(name, cfg)
		if err != nil || !i.IsAvailable() {
			continue
		}
		out = append(out, i)
	}
	return out
}

// ForPlatform resolves the requested backend ("auto" included) on p
func ForPlatform(p *platform.Platform, requested string, cfg *Config) (core.Installer, error) {
	name, err := p.ResolveBackend(requested)
	if err != nil {
		return nil, err
	}
	return Get(name, cfg)
}

// installation reports the existing directories of backend's layout under prefix
func installation(name, backend, prefix string) *core.Installation {
	libs, incs, bins := env.LayoutFor(backend).Resolve(prefix)
	return &core.Installation{
		Name:        name,
		Backend:     backend,
		Prefix:      prefix,
		LibDirs:     libs,
		IncludeDirs: incs,
		BinDirs:     bins,
	}
}
