// Package probe resolves xmipp.conf values by probing the host for
// compilers, libraries, CUDA, MPI and Java, and verifies the result by
// compiling small throwaway programs.
//
// All state lives in a Session that is threaded through every probe.
// External commands go through a shell.Runner, so tests can stub the
// toolchain entirely.
package probe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arc-language/buildconf/pkg/console"
	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/registry"
	"github.com/arc-language/buildconf/pkg/shell"
)

// SearchPaths are the fallback locations probed when PATH lookups fail
type SearchPaths struct {
	HDF5Libs      []string
	HDF5Headers   []string
	SystemInclude []string
	CUDABins      []string // entries may be globs
	CUDARoot      string
	MPIBins       []string
	JVMBins       []string // entries may be globs
}

// DefaultSearchPaths returns the usual Linux locations
func DefaultSearchPaths() SearchPaths {
	return SearchPaths{
		HDF5Libs:      []string{"/usr/lib", "/usr/lib/x86_64-linux-gnu"},
		HDF5Headers:   []string{"/usr/include/hdf5/serial"},
		SystemInclude: []string{"/usr/include"},
		CUDABins:      []string{"/usr/local/cuda/bin", "/usr/local/cuda*/bin"},
		CUDARoot:      "/usr",
		MPIBins:       []string{"/usr/lib/openmpi/bin", "/usr/lib64/openmpi/bin"},
		JVMBins:       []string{"/usr/lib/jvm/java-*/bin"},
	}
}

// Session is the mutable state of one configuration run
type Session struct {
	Config *core.Config
	Env    *env.Log

	Runner shell.Runner
	Prompt *shell.Prompter
	Out    *console.Printer
	Log    zerolog.Logger
	Getenv func(string) string

	// Installer installs missing dependencies; nil disables installs
	Installer core.Installer
	Registry  *registry.Registry

	// WorkDir holds the throwaway test programs. Runner must run there.
	WorkDir     string
	Ask         bool
	CI          bool
	Python      string
	IncludeDirs []string
	Search      SearchPaths

	installedIncludes []string
}

// NewSession returns a non-interactive session over cfg with defaults
func NewSession(cfg *core.Config, runner shell.Runner) *Session {
	out := console.New(os.Stdout)
	return &Session{
		Config:      cfg,
		Env:         env.NewLog(),
		Runner:      runner,
		Prompt:      shell.NewPrompter(nil, out),
		Out:         out,
		Log:         zerolog.Nop(),
		Getenv:      os.Getenv,
		WorkDir:     ".",
		CI:          IsCI(os.Getenv),
		Python:      "python3",
		IncludeDirs: []string{"../"},
		Search:      DefaultSearchPaths(),
	}
}

// IsCI reports whether a continuous-integration environment is signalled
func IsCI(getenv func(string) string) bool {
	for _, v := range []string{"CI", "TRAVIS", "GITHUB_ACTIONS"} {
		if getenv(v) != "" {
			return true
		}
	}
	return false
}

// run executes a command line and logs failures at debug level
func (s *Session) run(ctx context.Context, command string) ([]string, error) {
	out, err := s.Runner.Run(ctx, command)
	if err != nil {
		s.Log.Debug().Str("cmd", command).Strs("output", out).Err(err).Msg("command failed")
	}
	return out, err
}

// try reports whether command succeeded
func (s *Session) try(ctx context.Context, command string) bool {
	_, err := s.run(ctx, command)
	return err == nil
}

// cmdline joins the non-empty parts with single spaces
func cmdline(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (s *Session) path(name string) string {
	return filepath.Join(s.WorkDir, name)
}

func (s *Session) writeSource(name, content string) error {
	return os.WriteFile(s.path(name), []byte(content), 0644)
}

// cleanup removes every file in WorkDir matching one of the globs
func (s *Session) cleanup(patterns ...string) {
	for _, p := range patterns {
		matches, _ := filepath.Glob(s.path(p))
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				s.Log.Warn().Err(err).Str("file", m).Msg("cannot remove probe artifact")
			}
		}
	}
}

func (s *Session) checkProgram(name string) bool {
	return shell.CheckProgram(s.Getenv, name)
}

// assign sets a string key unless the environment preset it
func (s *Session) assign(key string, field *string, value string) {
	if s.Config.IsPreset(key) {
		s.Log.Debug().Str("key", key).Msg("keeping preset value")
		return
	}
	*field = value
}

// appendTo appends flags to a string key unless the environment preset it
func (s *Session) appendTo(key string, field *string, flags ...string) {
	if s.Config.IsPreset(key) {
		s.Log.Debug().Str("key", key).Msg("keeping preset value")
		return
	}
	*field = core.AppendFlags(*field, flags...)
}

// setFlag sets a boolean key unless the environment preset it
func (s *Session) setFlag(key string, field *core.Flag, v bool) {
	if s.Config.IsPreset(key) {
		s.Log.Debug().Str("key", key).Msg("keeping preset value")
		return
	}
	*field = core.FlagOf(v)
}
