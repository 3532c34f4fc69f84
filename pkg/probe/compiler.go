package probe

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/shell"
)

// ConfigureCompiler resolves CC, CXX, the compile and link flags, the
// library and include search paths and the Python flags. It ends with
// the OpenCV sub-probe when OpenCV state is unknown or CUDA/3.x support
// is requested.
func (s *Session) ConfigureCompiler(ctx context.Context) error {
	c := s.Config

	if c.Debug.IsUnset() {
		s.setFlag(core.KeyDebug, &c.Debug, false)
	}

	if c.CC == "" && s.checkProgram("gcc") {
		s.assign(core.KeyCC, &c.CC, "gcc")
		s.Out.Green("gcc detected")
	}

	cxx := ""
	if s.checkProgram("g++") {
		cxx = "g++"
		if s.CI {
			cxx = "ccache g++"
		}
	}
	if c.CXX == "" {
		s.assign(core.KeyCXX, &c.CXX, cxx)
	}
	if c.LinkerForPrograms == "" {
		s.assign(core.KeyLinkerForPrograms, &c.LinkerForPrograms, cxx)
	}

	if c.CC == "gcc" && !strings.Contains(c.CCFlags, "-std=c99") {
		s.appendTo(core.KeyCCFlags, &c.CCFlags, "-std=c99")
	}
	if strings.Contains(c.CXX, "g++") {
		s.appendTo(core.KeyCXXFlags, &c.CXXFlags, "-mtune=native -march=native")
		if !strings.Contains(c.CXXFlags, "-std=") {
			s.appendTo(core.KeyCXXFlags, &c.CXXFlags, "-std=c++11")
		}
		if s.CI {
			// warnings fail CI builds; optimizing only slows them down
			s.appendTo(core.KeyCXXFlags, &c.CXXFlags, "-Werror -O0")
		} else {
			s.appendTo(core.KeyCXXFlags, &c.CXXFlags, "-O3")
		}
		if c.Debug.IsTrue() {
			s.appendTo(core.KeyCXXFlags, &c.CXXFlags, "-g")
		}
	}

	py, err := s.QueryPython(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Out.Red("Cannot query '%s': %v", s.Python, err)
		s.Out.Red("Check the PYTHONINCFLAGS and PYTHON_LIB in %s", core.DefaultConfigFile)
		py = &PythonInfo{Data: "/usr"}
	}

	if c.LibDirFlags == "" {
		s.configureLibDirs(ctx, filepath.Join(py.Data, "lib"))
	}

	if !s.checkLib(ctx, "-lfftw3") {
		s.Out.Red("'libfftw3' not found in the system")
		s.installDep(ctx, "fftw")
	}
	if !s.checkLib(ctx, "-ltiff") {
		s.Out.Red("'libtiff' not found in the system")
		s.installDep(ctx, "libtiff")
	}

	if c.IncDirFlags == "" {
		s.configureIncDirs(filepath.Join(py.Data, "include"))
	}

	if c.PythonLib == "" && py.Version.Major > 0 {
		s.assign(core.KeyPythonLib, &c.PythonLib, py.PythonLib())
	}
	if c.PythonIncFlags == "" {
		s.assign(core.KeyPythonIncFlags, &c.PythonIncFlags, py.IncFlags())
	}

	if c.OpenCV.IsUnset() || c.OpenCVSupportsCUDA.IsTrue() || c.OpenCV3.IsTrue() {
		s.ConfigureOpenCV(ctx)
	}
	return ctx.Err()
}

func (s *Session) configureLibDirs(ctx context.Context, localLib string) {
	c := s.Config
	s.appendTo(core.KeyLibDirFlags, &c.LibDirFlags, "-L"+localLib)
	s.Env.Update(env.Begin, true, "LD_LIBRARY_PATH", localLib)

	if shell.FindFileInDirs("libhdf5*", localLib) != "" {
		return
	}
	if s.checkLib(ctx, "-lhdf5_cpp") && s.checkLib(ctx, "-lhdf5") {
		return
	}

	s.Out.Yellow("'libhdf5' not found at '%s'.", localLib)
	hdf5Lib := shell.FindFileInDirs("libhdf5*", s.Search.HDF5Libs...)
	hdf5Lib = s.Prompt.AskPath(hdf5Lib, s.Ask)
	if hdf5Lib != "" {
		s.appendTo(core.KeyLibDirFlags, &c.LibDirFlags, "-L"+hdf5Lib)
		s.Env.Update(env.Begin, true, "LD_LIBRARY_PATH", hdf5Lib)
		return
	}
	s.installDep(ctx, "hdf5")
}

func (s *Session) configureIncDirs(localInc string) {
	c := s.Config

	var flags []string
	for _, d := range s.IncludeDirs {
		flags = append(flags, "-I"+d)
	}
	flags = append(flags, "-I"+localInc)
	for _, d := range s.installedIncludes {
		flags = append(flags, "-I"+d)
	}
	s.appendTo(core.KeyIncDirFlags, &c.IncDirFlags, flags...)

	dirs := append([]string{localInc}, s.Search.SystemInclude...)
	dirs = append(dirs, s.installedIncludes...)
	if shell.FindFileInDirs("hdf5.h", dirs...) != "" {
		return
	}

	s.Out.Yellow("Headers for 'libhdf5' not found at '%s'.", localInc)
	hdf5Inc := shell.FindFileInDirs("hdf5.h", s.Search.HDF5Headers...)
	hdf5Inc = s.Prompt.AskPath(hdf5Inc, s.Ask)
	if hdf5Inc != "" {
		s.appendTo(core.KeyIncDirFlags, &c.IncDirFlags, "-I"+hdf5Inc)
	}
}

// checkLib reports whether an empty program links with the given flag
func (s *Session) checkLib(ctx context.Context, lib string) bool {
	defer s.cleanup("xmipp_check_lib*")
	if err := s.writeSource("xmipp_check_lib.cpp", "int main(){}\n"); err != nil {
		s.Log.Error().Err(err).Msg("cannot write probe source")
		return false
	}
	return s.try(ctx, cmdline(s.Config.CXX, lib, "xmipp_check_lib.cpp -o xmipp_check_lib"))
}
