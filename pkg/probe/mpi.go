package probe

import (
	"context"
	"path/filepath"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/shell"
)

// ConfigureMPI resolves MPI_RUN, MPI_CC, MPI_CXX and the MPI flags
func (s *Session) ConfigureMPI(ctx context.Context) error {
	c := s.Config
	candidates := append([]string{s.Getenv("MPI_BINDIR")}, s.Search.MPIBins...)

	if c.MPIRun == "" {
		switch {
		case s.checkProgram("mpirun"):
			s.assign(core.KeyMPIRun, &c.MPIRun, "mpirun")
			s.Out.Green("'mpirun' detected.")
		case s.checkProgram("mpiexec"):
			s.assign(core.KeyMPIRun, &c.MPIRun, "mpiexec")
			s.Out.Green("'mpiexec' detected.")
		default:
			s.Out.Yellow("'mpirun' and 'mpiexec' not found in the PATH")
			if dir := s.askMPIDir("mpirun", candidates); dir != "" {
				s.assign(core.KeyMPIRun, &c.MPIRun, filepath.Join(dir, "mpirun"))
				s.Env.Update(env.Begin, true, "PATH", dir)
			}
		}
	}

	s.resolveMPIProgram(core.KeyMPICC, &c.MPICC, "mpicc", candidates)
	s.resolveMPIProgram(core.KeyMPICXX, &c.MPICXX, "mpicxx", candidates)

	if lib := s.Getenv("MPI_LIBDIR"); lib != "" {
		s.appendTo(core.KeyMPICXXFlags, &c.MPICXXFlags, "-L"+lib)
	}
	if inc := s.Getenv("MPI_INCLUDE"); inc != "" {
		s.appendTo(core.KeyMPICXXFlags, &c.MPICXXFlags, "-I"+inc)
	}

	if c.MPILinkerForPrograms == "" {
		s.assign(core.KeyMPILinkerForPrograms, &c.MPILinkerForPrograms, c.MPICXX)
	}
	return ctx.Err()
}

func (s *Session) resolveMPIProgram(key string, field *string, program string, candidates []string) {
	if *field != "" {
		return
	}
	if s.checkProgram(program) {
		s.assign(key, field, program)
		s.Out.Green("'%s' detected.", program)
		return
	}
	s.Out.Yellow("'%s' not found in the PATH", program)
	if dir := s.askMPIDir(program, candidates); dir != "" {
		s.assign(key, field, filepath.Join(dir, program))
	}
}

func (s *Session) askMPIDir(program string, candidates []string) string {
	dir := shell.FindFileInDirs(program, candidates...)
	return s.Prompt.AskPath(dir, s.Ask)
}
