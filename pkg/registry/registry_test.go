package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/buildconf/pkg/core"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	r, err := New("")
	require.NoError(t, err)
	assert.Equal(t, []string{"fftw", "hdf5", "libtiff", "openjdk"}, r.Names())

	tests := []struct {
		name, backend, want string
	}{
		{"fftw", "apt", "libfftw3-dev"},
		{"hdf5", "nix", "hdf5-cpp"},
		{"libtiff", "apk", "tiff-dev"},
		{"openjdk", "pacman", "jdk-openjdk"},
		{"openjdk", "conda", "openjdk"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.name, tt.backend)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s", tt.name, tt.backend)
	}

	e, err := r.Load("hdf5")
	require.NoError(t, err)
	assert.Equal(t, []string{"hdf5", "hdf5_cpp"}, e.Libs)

	e, err = r.Load("openjdk")
	require.NoError(t, err)
	assert.Equal(t, []string{"javac", "jar"}, e.Bins)
}

func TestResolve_Unknown(t *testing.T) {
	t.Parallel()

	r, err := New("")
	require.NoError(t, err)

	_, err = r.Resolve("matlab", "apt")
	require.ErrorIs(t, err, core.ErrPackageNotFound)

	_, err = r.Resolve("fftw", "winget")
	require.ErrorIs(t, err, core.ErrPackageNotFound)
}

func TestOverrideDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fftw"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fftw", "index.toml"),
		[]byte("libs = [\"fftw3\"]\n[backends]\napt = \"libfftw3-mpi-dev\"\n"), 0644))

	r, err := New(dir)
	require.NoError(t, err)

	got, err := r.Resolve("fftw", "apt")
	require.NoError(t, err)
	assert.Equal(t, "libfftw3-mpi-dev", got)

	e, err := r.Load("fftw")
	require.NoError(t, err)
	assert.Equal(t, "fftw", e.Name)

	got, err = r.Resolve("hdf5", "apt")
	require.NoError(t, err)
	assert.Equal(t, "libhdf5-dev", got)
}
