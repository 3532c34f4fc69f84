package dpkg

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type entry struct {
	name string
	body string
	link string // symlink target when set
}

// buildDeb returns a .deb whose data archive holds entries
func buildDeb(t *testing.T, compression string, entries ...entry) []byte {
	t.Helper()

	var data bytes.Buffer
	var closer func() error
	var w *tar.Writer
	switch compression {
	case "xz":
		xw, err := xz.NewWriter(&data)
		require.NoError(t, err)
		w, closer = tar.NewWriter(xw), xw.Close
	case "gz":
		gw := gzip.NewWriter(&data)
		w, closer = tar.NewWriter(gw), gw.Close
	case "zst":
		zw, err := zstd.NewWriter(&data)
		require.NoError(t, err)
		w, closer = tar.NewWriter(zw), zw.Close
	default:
		t.Fatalf("unknown compression %s", compression)
	}

	for _, e := range entries {
		hdr := &tar.Header{Name: "./" + e.name, Mode: 0644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.link != "" {
			hdr = &tar.Header{Name: "./" + e.name, Linkname: e.link, Typeflag: tar.TypeSymlink}
		}
		require.NoError(t, w.WriteHeader(hdr))
		if e.link == "" {
			_, err := w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	require.NoError(t, closer())

	var deb bytes.Buffer
	aw := ar.NewWriter(&deb)
	require.NoError(t, aw.WriteGlobalHeader())
	for _, m := range []struct {
		name string
		body []byte
	}{
		{"debian-binary", []byte("2.0\n")},
		{"control.tar.gz", []byte{}},
		{"data.tar." + compression, data.Bytes()},
	} {
		require.NoError(t, aw.WriteHeader(&ar.Header{Name: m.name, Size: int64(len(m.body)), Mode: 0644, ModTime: time.Unix(0, 0)}))
		_, err := aw.Write(m.body)
		require.NoError(t, err)
	}
	return deb.Bytes()
}

func sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

type mirror struct {
	*httptest.Server
	mu        sync.Mutex
	files     map[string][]byte
	requested []string
}

func newMirror(t *testing.T) *mirror {
	m := &mirror{files: make(map[string][]byte)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requested = append(m.requested, r.URL.Path)
		body, ok := m.files[r.URL.Path]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mirror) gzipIndex(t *testing.T, path, stanzas string) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(stanzas))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	m.files[path] = buf.Bytes()
}

func (m *mirror) was(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.requested {
		if p == path {
			return true
		}
	}
	return false
}

func stanza(name, version, priority, depends, filename string, deb []byte) string {
	s := fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: amd64\nPriority: %s\n", name, version, priority)
	if depends != "" {
		s += "Depends: " + depends + "\n"
	}
	return s + fmt.Sprintf("Filename: %s\nSize: %d\nSHA256: %s\nDescription: %s\n multi-line\n .\n text\n\n",
		filename, len(deb), sum(deb), name+" package")
}

func TestParsePackages(t *testing.T) {
	t.Parallel()

	input := `Package: libfftw3-dev
Version: 3.3.10-1
Architecture: amd64
Priority: optional
Pre-Depends: dpkg (>= 1.15)
Depends: libfftw3-double3 (= 3.3.10-1), libfftw3-single3:any | libfftw3-long3
Filename: pool/main/f/fftw3/libfftw3-dev_3.3.10-1_amd64.deb
Size: 2048
SHA256: abc123
Description: library for computing Fast Fourier Transforms
 This library computes FFTs in one or more dimensions.

Package: libc6
Version: 2.39-0ubuntu8
Priority: required
`
	pkgs, err := ParsePackages(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	want := &Package{
		Package:      "libfftw3-dev",
		Version:      "3.3.10-1",
		Architecture: "amd64",
		Priority:     "optional",
		Depends:      []string{"dpkg", "libfftw3-double3", "libfftw3-single3"},
		Filename:     "pool/main/f/fftw3/libfftw3-dev_3.3.10-1_amd64.deb",
		Size:         2048,
		SHA256:       "abc123",
		Description:  "library for computing Fast Fourier Transforms",
	}
	if diff := cmp.Diff(want, pkgs[0]); diff != "" {
		t.Errorf("package mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "required", pkgs[1].Priority)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	dev := buildDeb(t, "xz",
		entry{name: "usr/include/foo.h", body: "int foo(void);\n"},
		entry{name: "usr/lib/x86_64-linux-gnu/libfoo.so", link: "libfoo.so.1"},
	)
	lib := buildDeb(t, "gz",
		entry{name: "usr/lib/x86_64-linux-gnu/libfoo.so.1", body: "ELF"},
	)

	m := newMirror(t)
	m.files["/pool/libfoo-dev.deb"] = dev
	m.files["/pool/libfoo1.deb"] = lib
	m.gzipIndex(t, "/dists/noble/main/binary-amd64/Packages.gz",
		stanza("libfoo-dev", "1.0", "optional", "libfoo1 (= 1.0), libc6 (>= 2.34), libmissing", "pool/libfoo-dev.deb", dev)+
			stanza("libfoo1", "1.0", "optional", "", "pool/libfoo1.deb", lib)+
			stanza("libc6", "2.39", "required", "", "pool/libc6.deb", []byte("x")))

	dir := t.TempDir()
	f := NewFetcher(Options{
		MirrorURL:   m.URL,
		Release:     "noble",
		Components:  []string{"main", "universe"},
		Arch:        ArchAmd64,
		InstallPath: dir,
		Log:         zerolog.Nop(),
	})

	prefix, err := f.Fetch(context.Background(), "libfoo-dev", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dpkg"), prefix)

	header, err := os.ReadFile(filepath.Join(prefix, "usr/include/foo.h"))
	require.NoError(t, err)
	assert.Equal(t, "int foo(void);\n", string(header))

	link, err := os.Readlink(filepath.Join(prefix, "usr/lib/x86_64-linux-gnu/libfoo.so"))
	require.NoError(t, err)
	assert.Equal(t, "libfoo.so.1", link)
	_, err = os.Stat(filepath.Join(prefix, "usr/lib/x86_64-linux-gnu/libfoo.so"))
	assert.NoError(t, err, "symlink must resolve to the dependency's library")

	assert.True(t, m.was("/dists/noble/main/binary-amd64/Packages.xz"), "xz index is tried first")
	assert.False(t, m.was("/pool/libc6.deb"), "required packages are never fetched")

	cached, err := os.ReadDir(filepath.Join(dir, "cache", "dpkg"))
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	deb := buildDeb(t, "gz", entry{name: "usr/include/bar.h", body: "x"})
	m := newMirror(t)
	m.files["/pool/bar.deb"] = deb
	m.gzipIndex(t, "/dists/noble/main/binary-amd64/Packages.gz",
		stanza("bar", "2.0", "optional", "", "pool/bar.deb", []byte("something else")))

	f := NewFetcher(Options{MirrorURL: m.URL, Components: []string{"main"}, Arch: ArchAmd64, InstallPath: t.TempDir()})

	_, err := f.Fetch(context.Background(), "bar", "")
	require.ErrorIs(t, err, ErrHashMismatch)

	_, err = f.Fetch(context.Background(), "bar", "1.0")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "nope", "")
	require.ErrorIs(t, err, ErrNotFound)

	empty := NewFetcher(Options{MirrorURL: m.URL, Release: "jammy", Arch: ArchAmd64, InstallPath: t.TempDir()})
	_, err = empty.Fetch(context.Background(), "bar", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no package index for jammy/amd64")
}

func TestExtract_Zstd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	debPath := filepath.Join(dir, "zst.deb")
	require.NoError(t, os.WriteFile(debPath, buildDeb(t, "zst", entry{name: "usr/include/tiff.h", body: "tiff"}), 0644))

	require.NoError(t, Extract(debPath, filepath.Join(dir, "root")))
	got, err := os.ReadFile(filepath.Join(dir, "root", "usr", "include", "tiff.h"))
	require.NoError(t, err)
	assert.Equal(t, "tiff", string(got))
}

func TestExtract_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	debPath := filepath.Join(dir, "evil.deb")
	require.NoError(t, os.WriteFile(debPath, buildDeb(t, "gz", entry{name: "../../etc/evil", body: "x"}), 0644))

	err := Extract(debPath, filepath.Join(dir, "root"))
	require.ErrorIs(t, err, ErrUnsafePath)
	_, statErr := os.Stat(filepath.Join(dir, "etc", "evil"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDetectRelease(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "os-release"),
		[]byte("NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_CODENAME=jammy\n"), 0644))

	assert.Equal(t, Release{ID: "ubuntu", Codename: "jammy"}, DetectRelease(root))
	assert.Equal(t, Release{}, DetectRelease(t.TempDir()))
}
