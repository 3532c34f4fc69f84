package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/registry"
)

func TestConfigureMPI_OnPath(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "mpirun", "mpicc", "mpicxx")
	h.env["MPI_LIBDIR"] = "/opt/mpi/lib"
	h.env["MPI_INCLUDE"] = "/opt/mpi/include"
	s := h.session(nil)

	require.NoError(t, s.ConfigureMPI(context.Background()))
	c := s.Config

	assert.Equal(t, "mpirun", c.MPIRun)
	assert.Equal(t, "mpicc", c.MPICC)
	assert.Equal(t, "mpicxx", c.MPICXX)
	assert.Equal(t, "mpicxx", c.MPILinkerForPrograms)
	assert.Equal(t, "-L/opt/mpi/lib -I/opt/mpi/include", c.MPICXXFlags)
	assert.Contains(t, h.out.String(), "'mpirun' detected.")
}

func TestConfigureMPI_MPIExec(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("bin", "mpiexec", "mpicxx")
	s := h.session(nil)

	require.NoError(t, s.ConfigureMPI(context.Background()))
	assert.Equal(t, "mpiexec", s.Config.MPIRun)
	assert.Empty(t, s.Config.MPICC)
	assert.Contains(t, h.out.String(), "'mpicc' not found in the PATH")
}

func TestConfigureMPI_FallbackDirs(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("openmpi/bin", "mpirun", "mpicc", "mpicxx")
	s := h.session(nil)
	s.Search.MPIBins = []string{h.path("missing"), h.path("openmpi/bin")}

	require.NoError(t, s.ConfigureMPI(context.Background()))
	c := s.Config
	dir := h.path("openmpi/bin")

	assert.Equal(t, filepath.Join(dir, "mpirun"), c.MPIRun)
	assert.Equal(t, filepath.Join(dir, "mpicc"), c.MPICC)
	assert.Equal(t, filepath.Join(dir, "mpicxx"), c.MPICXX)
	assert.Equal(t, c.MPICXX, c.MPILinkerForPrograms)

	p, ok := s.Env.Get("PATH")
	require.True(t, ok)
	assert.Equal(t, dir, p)
}

func TestConfigureMPI_BinDirEnv(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("mpi/bin", "mpirun", "mpicc", "mpicxx")
	h.env["MPI_BINDIR"] = h.path("mpi/bin")
	h.env["MPI_LINKERFORPROGRAMS"] = "mpic++"
	s := h.session(nil)

	require.NoError(t, s.ConfigureMPI(context.Background()))
	assert.Equal(t, filepath.Join(h.path("mpi/bin"), "mpirun"), s.Config.MPIRun)
	assert.Equal(t, "mpic++", s.Config.MPILinkerForPrograms)
}

func TestJavaPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/usr/lib/jvm/java-8", JavaHome("/usr/lib/jvm/java-8/jre/bin"))
	assert.Equal(t, "/opt/jdk", JavaHome("/opt/jdk/bin/"))
	assert.Equal(t, "/opt/jdk", JavaHome("/opt/jdk"))
	assert.Equal(t, "/opt/jdk/bin", JavaBinDir("/opt/jdk"))
	assert.Equal(t, "/opt/jdk/include:/opt/jdk/include/linux", JNICPPPath("/opt/jdk"))
}

func TestConfigureJava_OnPath(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("jdk/bin", "javac", "jar")
	require.NoError(t, os.MkdirAll(h.path("jdk/include"), 0755))
	h.env["PATH"] = h.bin + ":" + h.path("jdk/bin")
	s := h.session(nil)

	require.NoError(t, s.ConfigureJava(context.Background()))
	c := s.Config
	home := h.path("jdk")

	assert.Equal(t, home, c.JavaHome)
	assert.Equal(t, filepath.Join(home, "bin"), c.JavaBinDir)
	assert.Equal(t, filepath.Join(home, "bin", "javac"), c.JavaC)
	assert.Equal(t, filepath.Join(home, "bin", "jar"), c.Jar)
	assert.Equal(t, JNICPPPath(home), c.JNICPPPath)
	assert.Contains(t, h.out.String(), "Java detected at: "+home)

	p, _ := s.Env.Get("PATH")
	assert.Equal(t, filepath.Join(home, "bin"), p)
}

func TestConfigureJava_SearchDirs(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("jvm/java-11/bin", "javac", "jar")
	require.NoError(t, os.MkdirAll(h.path("jvm/java-11/include"), 0755))
	s := h.session(nil)
	s.Search.JVMBins = []string{h.path("jvm/java-*/bin")}

	require.NoError(t, s.ConfigureJava(context.Background()))
	assert.Equal(t, h.path("jvm/java-11"), s.Config.JavaHome)
	assert.Contains(t, h.out.String(), "'javac' not found in the PATH")
	assert.Contains(t, h.out.String(), "Java detected at:")
}

func TestConfigureJava_PresetHome(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.env["JAVA_HOME"] = "/opt/java"
	h.env["JAVAC"] = "/opt/java/bin/javac-custom"
	s := h.session(nil)

	require.NoError(t, s.ConfigureJava(context.Background()))
	c := s.Config
	assert.Equal(t, "/opt/java", c.JavaHome)
	assert.Equal(t, "/opt/java/bin", c.JavaBinDir)
	assert.Equal(t, "/opt/java/bin/javac-custom", c.JavaC)
	assert.Equal(t, "/opt/java/bin/jar", c.Jar)
	assert.Contains(t, h.out.String(), "No development environ for 'java' found.")
}

func TestConfigureJava_Installs(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.exe("inst/bin", "javac", "jar")
	require.NoError(t, os.MkdirAll(h.path("inst/include"), 0755))

	reg, err := registry.New("")
	require.NoError(t, err)
	inst := &fakeInstaller{name: "apt", inst: &core.Installation{
		Prefix:  h.path("inst"),
		BinDirs: []string{h.path("inst/bin")},
	}}
	s := h.session(nil)
	s.Installer = inst
	s.Registry = reg

	require.NoError(t, s.ConfigureJava(context.Background()))
	assert.Equal(t, []string{"default-jdk"}, inst.pkgs)
	assert.Equal(t, h.path("inst"), s.Config.JavaHome)
	assert.Contains(t, h.out.String(), "Java detected at:")
}

func TestConfigureJava_NotFound(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	s := h.session(nil)

	require.NoError(t, s.ConfigureJava(context.Background()))
	assert.Empty(t, s.Config.JavaHome)
	assert.Empty(t, s.Config.JavaC)
	assert.Contains(t, h.out.String(), "install 'openjdk' manually")
	assert.Contains(t, h.out.String(), "No development environ for 'java' found.")
}
