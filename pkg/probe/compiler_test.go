package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/registry"
	"github.com/arc-language/buildconf/pkg/shell"
)

// openCVMajor makes the version program report major
func (h *host) openCVMajor(major string) {
	h.onDo("./xmipp_test_opencv", func() {
		_ = os.WriteFile(filepath.Join(h.work, "xmipp_test_opencv.txt"), []byte(major+"\n"), 0644)
	})
}

func TestConfigureCompiler_Defaults(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "gcc", "g++")
	h.file("py/include/hdf5.h")
	h.openCVMajor("4")
	s := h.session(nil)

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	c := s.Config

	assert.Equal(t, core.FlagFalse, c.Debug)
	assert.Equal(t, "gcc", c.CC)
	assert.Equal(t, "g++", c.CXX)
	assert.Equal(t, "g++", c.LinkerForPrograms)
	assert.Equal(t, "-std=c99", c.CCFlags)
	assert.Equal(t, "-mtune=native -march=native -std=c++11 -O3", c.CXXFlags)
	assert.Equal(t, "-L"+h.path("py/lib"), c.LibDirFlags)
	assert.Equal(t, "-I../ -I"+h.path("py/include"), c.IncDirFlags)
	assert.Equal(t, "python3.10", c.PythonLib)
	assert.Equal(t, "-I"+h.path("py/include/python3.10")+" -I"+h.path("py/numpy/include"), c.PythonIncFlags)

	assert.Equal(t, core.FlagTrue, c.OpenCV)
	assert.Equal(t, core.FlagTrue, c.OpenCV3)
	assert.Equal(t, core.FlagTrue, c.OpenCVSupportsCUDA)
	assert.Contains(t, h.out.String(), "OPENCV-4 detected with CUDA support")

	ld, ok := s.Env.Get("LD_LIBRARY_PATH")
	require.True(t, ok)
	assert.Equal(t, h.path("py/lib"), ld)

	assert.True(t, h.ran("g++ -lhdf5_cpp xmipp_check_lib.cpp -o xmipp_check_lib"))
	assert.True(t, h.ran("g++ -lfftw3 xmipp_check_lib.cpp -o xmipp_check_lib"))
	assert.True(t, h.ran("g++ -ltiff xmipp_check_lib.cpp -o xmipp_check_lib"))
	assert.Empty(t, h.artifacts())
}

func TestConfigureCompiler_CI(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "gcc", "g++")
	h.file("py/include/hdf5.h")
	h.env["DEBUG"] = "True"
	s := h.session(nil)
	s.CI = true

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Equal(t, "ccache g++", s.Config.CXX)
	assert.Equal(t, "ccache g++", s.Config.LinkerForPrograms)
	assert.Equal(t, "-mtune=native -march=native -std=c++11 -Werror -O0 -g", s.Config.CXXFlags)
}

func TestConfigureCompiler_KeepsPresetValues(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "gcc", "g++")
	h.env["CC"] = "clang"
	h.env["CXX"] = "clang++"
	h.env["CXXFLAGS"] = "-O1"
	h.env["LIBDIRFLAGS"] = "-L/opt/custom/lib"
	h.env["INCDIRFLAGS"] = "-I/opt/custom/include"
	h.env["OPENCV"] = "False"
	s := h.session(nil)

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	c := s.Config

	assert.Equal(t, "clang", c.CC)
	assert.Equal(t, "clang++", c.CXX)
	assert.Equal(t, "-O1", c.CXXFlags)
	assert.Empty(t, c.CCFlags)
	assert.Equal(t, "-L/opt/custom/lib", c.LibDirFlags)
	assert.Equal(t, "-I/opt/custom/include", c.IncDirFlags)
	assert.Equal(t, "g++", c.LinkerForPrograms)
	assert.Equal(t, core.FlagFalse, c.OpenCV)

	assert.False(t, h.ran("xmipp_test_opencv"))
	assert.False(t, h.ran("-lhdf5"))
	assert.True(t, h.ran("clang++ -lfftw3 xmipp_check_lib.cpp"))
}

func TestConfigureCompiler_PythonFailure(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.fail("sysconfig", "python3: command not found")
	h.env["OPENCV"] = "False"
	s := h.session(nil)

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Contains(t, h.out.String(), "Cannot query 'python3'")
	assert.Equal(t, "-L/usr/lib", s.Config.LibDirFlags)
	assert.Empty(t, s.Config.PythonLib)
	assert.Empty(t, s.Config.PythonIncFlags)
}

func TestConfigureCompiler_HDF5Fallback(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.file("py/include/hdf5.h")
	h.file("hdf5/lib/libhdf5.so")
	h.fail("-lhdf5_cpp")
	h.env["OPENCV"] = "False"
	s := h.session(nil)
	s.Search.HDF5Libs = []string{h.path("nowhere"), h.path("hdf5/lib")}

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Equal(t, "-L"+h.path("py/lib")+" -L"+h.path("hdf5/lib"), s.Config.LibDirFlags)
	assert.Contains(t, h.out.String(), "'libhdf5' not found at")
	assert.Contains(t, h.out.String(), "Using '"+h.path("hdf5/lib")+"'.")
}

func TestConfigureCompiler_HDF5Headers(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.file("hdf5/serial/hdf5.h")
	h.env["OPENCV"] = "False"
	s := h.session(nil)
	s.Search.HDF5Headers = []string{h.path("hdf5/serial")}

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Equal(t, "-I../ -I"+h.path("py/include")+" -I"+h.path("hdf5/serial"), s.Config.IncDirFlags)
	assert.Contains(t, h.out.String(), "Headers for 'libhdf5' not found at")
}

func TestConfigureCompiler_InstallsMissingLibraries(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.file("py/include/hdf5.h")
	h.file("inst/lib/libfftw3.so")
	h.fail("-lfftw3 xmipp_check_lib")
	h.fail("-ltiff xmipp_check_lib")
	h.env["OPENCV"] = "False"

	reg, err := registry.New("")
	require.NoError(t, err)
	inst := &fakeInstaller{name: "apt", inst: &core.Installation{
		Prefix:      h.path("inst"),
		LibDirs:     []string{h.path("inst/lib")},
		IncludeDirs: []string{h.path("inst/include")},
	}}

	s := h.session(nil)
	s.Installer = inst
	s.Registry = reg

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Equal(t, []string{"libfftw3-dev", "libtiff-dev"}, inst.pkgs)
	assert.Contains(t, s.Config.LibDirFlags, "-L"+h.path("inst/lib"))
	assert.True(t, strings.HasSuffix(s.Config.IncDirFlags, "-I"+h.path("inst/include")), s.Config.IncDirFlags)
	assert.Contains(t, h.out.String(), "'libfftw3' not found in the system")
	assert.Contains(t, h.out.String(), "'libfftw3-dev' installed with apt")
}

func TestConfigureCompiler_SystemInstallKeepsDefaultDirsOut(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.file("py/include/hdf5.h")
	h.file("usr/lib/libfftw3.so")
	h.fail("-lfftw3 xmipp_check_lib")
	h.env["OPENCV"] = "False"

	reg, err := registry.New("")
	require.NoError(t, err)
	inst := &fakeInstaller{name: "apt", inst: &core.Installation{
		Prefix:      h.root,
		LibDirs:     []string{h.path("usr/lib")},
		IncludeDirs: []string{h.path("usr/include")},
		System:      true,
	}}

	s := h.session(nil)
	s.Installer = inst
	s.Registry = reg

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Equal(t, []string{"libfftw3-dev"}, inst.pkgs)
	assert.NotContains(t, s.Config.LibDirFlags, h.path("usr/lib"))
	assert.NotContains(t, s.Config.IncDirFlags, h.path("usr/include"))
	ld, _ := s.Env.Get("LD_LIBRARY_PATH")
	assert.NotContains(t, ld, h.path("usr/lib"))
}

func TestConfigureCompiler_InstallDeclined(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.file("py/include/hdf5.h")
	h.fail("-lfftw3 xmipp_check_lib")
	h.env["OPENCV"] = "False"

	reg, err := registry.New("")
	require.NoError(t, err)
	inst := &fakeInstaller{name: "dnf"}

	s := h.session(nil)
	s.Installer = inst
	s.Registry = reg
	s.Ask = true
	s.Prompt = shell.NewPrompter(strings.NewReader("no\n"), s.Out)

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Empty(t, inst.pkgs)
	assert.Contains(t, h.out.String(), "Do you want to install 'fftw-devel' with dnf?")
	assert.Contains(t, h.out.String(), "Skipping 'fftw-devel'")
}

func TestConfigureCompiler_InstallFailsOrUnavailable(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "g++")
	h.file("py/include/hdf5.h")
	h.fail("-lfftw3 xmipp_check_lib")
	h.fail("-ltiff xmipp_check_lib")
	h.env["OPENCV"] = "False"

	s := h.session(nil)
	s.Installer = &fakeInstaller{name: "conda", err: errors.New("solver failed")}

	require.NoError(t, s.ConfigureCompiler(context.Background()))
	assert.Contains(t, h.out.String(), "Cannot install 'fftw' with conda: solver failed")
	assert.Equal(t, "-L"+h.path("py/lib"), s.Config.LibDirFlags)

	h2 := newHost(t)
	h2.exe("bin", "g++")
	h2.file("py/include/hdf5.h")
	h2.fail("-ltiff xmipp_check_lib")
	h2.env["OPENCV"] = "False"

	require.NoError(t, h2.session(nil).ConfigureCompiler(context.Background()))
	assert.Contains(t, h2.out.String(), "No package installer available. Please, install 'libtiff' manually")
}

func TestConfigureOpenCV(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		h := newHost(t)
		h.fail("xmipp_test_opencv.cpp -o xmipp_test_opencv.o")
		s := h.session(nil)
		s.Config.CXX = "g++"

		s.ConfigureOpenCV(context.Background())
		assert.Equal(t, core.FlagFalse, s.Config.OpenCV)
		assert.Equal(t, core.FlagFalse, s.Config.OpenCV3)
		assert.Equal(t, core.FlagFalse, s.Config.OpenCVSupportsCUDA)
		assert.Contains(t, h.out.String(), "OpenCV not found")
		assert.Empty(t, h.artifacts())
	})

	t.Run("version defaults to 2", func(t *testing.T) {
		t.Parallel()
		h := newHost(t)
		s := h.session(nil)
		s.Config.CXX = "g++"

		s.ConfigureOpenCV(context.Background())
		assert.Equal(t, core.FlagTrue, s.Config.OpenCV)
		assert.Equal(t, core.FlagFalse, s.Config.OpenCV3)
		assert.Equal(t, core.FlagTrue, s.Config.OpenCVSupportsCUDA)
		assert.Contains(t, h.out.String(), "OPENCV-2 detected with CUDA support")
		assert.True(t, h.ran("./xmipp_test_opencv"))
		assert.Empty(t, h.artifacts())
	})
}
