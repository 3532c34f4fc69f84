package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/shell"
)

// systemCommand describes how a distribution package manager installs
type systemCommand struct {
	program string
	// arguments placed before the package
	install string
	// package spec pinned to a version
	pin func(pkg, version string) string
}

var systemCommands = map[string]systemCommand{
	"apt": {
		program: "apt-get",
		install: "install -y --no-install-recommends",
		pin:     func(p, v string) string { return p + "=" + v },
	},
	"dnf": {
		program: "dnf",
		install: "install -y",
		pin:     func(p, v string) string { return p + "-" + v },
	},
	"pacman": {
		program: "pacman",
		install: "-S --noconfirm --needed",
		pin:     func(p, v string) string { return p + "=" + v },
	},
	"zypper": {
		program: "zypper",
		install: "--non-interactive install",
		pin:     func(p, v string) string { return p + "=" + v },
	},
	"apk": {
		program: "apk",
		install: "add --no-cache",
		pin:     func(p, v string) string { return p + "=" + v },
	},
}

// System installs into the root filesystem with the distribution's
// package manager
type System struct {
	name string
	cmd  systemCommand
	cfg  *Config
}

func newSystem(name string, cfg *Config) *System {
	return &System{name: name, cmd: systemCommands[name], cfg: cfg}
}

func (s *System) Name() string { return s.name }

func (s *System) IsAvailable() bool {
	return shell.CheckProgram(s.cfg.Getenv, s.cmd.program)
}

func (s *System) Install(ctx context.Context, pkg string, opts *core.InstallOptions) (*core.Installation, error) {
	spec := pkg
	if opts != nil && opts.Version != "" {
		spec = s.cmd.pin(pkg, opts.Version)
	}

	command := fmt.Sprintf("%s %s %s", s.cmd.program, s.cmd.install, shellQuote(spec))
	if s.cfg.Sudo {
		command = "sudo " + command
	}

	s.cfg.Log.Info().Str("backend", s.name).Str("package", spec).Msg("installing")
	if out, err := s.cfg.Runner.Run(ctx, command); err != nil {
		return nil, commandError(command, out, err)
	}
	inst := installation(pkg, s.name, s.cfg.Root)
	inst.System = true
	return inst, nil
}

func commandError(command string, out []string, err error) error {
	if len(out) > 0 {
		return fmt.Errorf("%s: %w\n%s", command, err, strings.Join(out, "\n"))
	}
	return fmt.Errorf("%s: %w", command, err)
}

// shellQuote quotes s for sh unless it is a plain word
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '-' || r == '_' || r == '.' || r == '+' || r == '=' || r == '@' || r == '/' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
