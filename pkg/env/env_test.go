package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_UpdatePositions(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.Update(Begin, false, "LD_LIBRARY_PATH", "/a")
	l.Update(Begin, false, "LD_LIBRARY_PATH", "/b")
	l.Update(End, false, "LD_LIBRARY_PATH", "/c")
	l.Update(Begin, false, "CUDA", true)
	l.Update(Begin, false, "CUDA", false)
	l.Update(Replace, false, "PATH", "/x")
	l.Update(Replace, false, "PATH", "/y")

	want := map[string]string{
		"LD_LIBRARY_PATH": "/b:/a:/c",
		"CUDA":            "True",
		"PATH":            "/y",
	}
	if diff := cmp.Diff(want, l.Vars()); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	l.Update(Replace, false, "CUDA", false)
	v, ok := l.Get("CUDA")
	require.True(t, ok)
	assert.Equal(t, "False", v)

	entries := l.Entries()
	require.Len(t, entries, 8)
	assert.Equal(t, Entry{Key: "LD_LIBRARY_PATH", Value: "/a", Pos: Begin}, entries[0])
	assert.Equal(t, Replace, entries[7].Pos)
}

func TestLog_RealPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	real := filepath.Join(dir, "cuda-11.2")
	require.NoError(t, os.Mkdir(real, 0755))
	link := filepath.Join(dir, "cuda")
	require.NoError(t, os.Symlink(real, link))

	l := NewLog()
	l.Update(Begin, true, "PATH", link)
	got, _ := l.Get("PATH")

	want, err := filepath.EvalSymlinks(real)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLog_WriteAndRead(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.Update(Begin, false, "LD_LIBRARY_PATH", "/opt/lib")
	l.Update(Begin, false, "CUDA", false)

	for _, name := range []string{"xmippEnv.json", "xmipp.env"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, l.Write(path))

		got, err := ReadFile(path)
		require.NoError(t, err)
		if diff := cmp.Diff(l.Vars(), got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestScript(t *testing.T) {
	t.Parallel()

	got := Script(map[string]string{
		"LD_LIBRARY_PATH": "/opt/lib",
		"CUDA":            "True",
	})
	want := "export CUDA=\"True\"\n" +
		"export LD_LIBRARY_PATH=\"/opt/lib:$LD_LIBRARY_PATH\"\n"
	assert.Equal(t, want, got)
}

func TestFindLibrary(t *testing.T) {
	t.Parallel()

	a := t.TempDir()
	b := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(b, "libfftw3.so.3"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(a, "libtiff.a"), nil, 0644))

	lib := FindLibrary("fftw3", []string{a, b})
	require.NotNil(t, lib)
	assert.Equal(t, filepath.Join(b, "libfftw3.so.3"), lib.Path)
	assert.False(t, lib.IsStatic)

	lib = FindLibrary("tiff", []string{a, b})
	require.NotNil(t, lib)
	assert.True(t, lib.IsStatic)

	assert.Nil(t, FindLibrary("jpeg", []string{a, b}))
}

func TestHDF5Name(t *testing.T) {
	t.Parallel()

	plain := t.TempDir()
	serial := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(plain, "libhdf5.so"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(serial, "libhdf5_serial.so"), nil, 0644))

	assert.Equal(t, "hdf5", HDF5Name(""))
	assert.Equal(t, "hdf5_serial", HDF5Name("-L/nonexistent -L"+serial))
	assert.Equal(t, "hdf5", HDF5Name("-L"+plain+" -L"+serial))
}

func TestDirsFromFlags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"/usr/lib", "/opt/lib"}, DirsFromFlags("-L/usr/lib  -L/opt/lib ", "-L"))
	assert.Nil(t, DirsFromFlags("", "-L"))
}

func TestLayoutResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "include"), 0755))

	libs, incs, bins := LayoutFor("conda").Resolve(root)
	assert.Equal(t, []string{filepath.Join(root, "lib")}, libs)
	assert.Equal(t, []string{filepath.Join(root, "include")}, incs)
	assert.Empty(t, bins)
}
