package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/buildconf/pkg/core"
)

func fakeRoot(t *testing.T, osRelease string, programs ...string) (string, func(string) string) {
	t.Helper()
	root := t.TempDir()
	if osRelease != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "os-release"), []byte(osRelease), 0644))
	}
	bin := filepath.Join(root, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	for _, p := range programs {
		require.NoError(t, os.WriteFile(filepath.Join(bin, p), []byte("#!/bin/sh\n"), 0755))
	}
	return root, func(k string) string {
		if k == "PATH" {
			return bin
		}
		return ""
	}
}

func TestDetect_UbuntuPrefersApt(t *testing.T) {
	t.Parallel()

	root, getenv := fakeRoot(t, "NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n", "apt-get", "conda")
	d := &Detector{Root: root, GOOS: "linux", GOARCH: "amd64", Getenv: getenv}

	p, err := d.Detect()
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", p.Distro)
	assert.Equal(t, []string{"debian"}, p.Like)
	assert.Equal(t, []string{"conda", "apt", "nix", "dpkg"}, p.Available)
	assert.Equal(t, "apt", p.Preferred)
	assert.Contains(t, p.String(), "preferred: apt")
}

func TestDetect_ActiveCondaEnvWins(t *testing.T) {
	t.Parallel()

	root, pathEnv := fakeRoot(t, "ID=fedora\n", "dnf", "conda")
	getenv := func(k string) string {
		if k == "CONDA_PREFIX" {
			return "/opt/conda/envs/xmipp"
		}
		return pathEnv(k)
	}
	d := &Detector{Root: root, GOOS: "linux", GOARCH: "amd64", Getenv: getenv}

	p, err := d.Detect()
	require.NoError(t, err)
	assert.Equal(t, "conda", p.Preferred)
}

func TestDetect_LikeFallbackAndNix(t *testing.T) {
	t.Parallel()

	root, getenv := fakeRoot(t, "ID=manjaro\nID_LIKE=arch\n")
	d := &Detector{Root: root, GOOS: "linux", GOARCH: "amd64", Getenv: getenv}

	p, err := d.Detect()
	require.NoError(t, err)
	assert.Equal(t, []string{"nix"}, p.Available)
	assert.Equal(t, "nix", p.Preferred)
}

func TestDetect_MarkerFile(t *testing.T) {
	t.Parallel()

	root, getenv := fakeRoot(t, "", "apk")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "alpine-release"), []byte("3.19\n"), 0644))
	d := &Detector{Root: root, GOOS: "linux", GOARCH: "arm64", Getenv: getenv}

	p, err := d.Detect()
	require.NoError(t, err)
	assert.Equal(t, "alpine", p.Distro)
	assert.Equal(t, "apk", p.Preferred)
}

func TestDetect_Unsupported(t *testing.T) {
	t.Parallel()

	d := &Detector{Root: t.TempDir(), GOOS: "plan9", Getenv: func(string) string { return "" }}
	_, err := d.Detect()
	require.Error(t, err)
}

func TestResolveBackend(t *testing.T) {
	t.Parallel()

	p := &Platform{Available: []string{"apt", "nix"}, Preferred: "apt"}

	got, err := p.ResolveBackend("auto")
	require.NoError(t, err)
	assert.Equal(t, "apt", got)

	got, err = p.ResolveBackend("nix")
	require.NoError(t, err)
	assert.Equal(t, "nix", got)

	_, err = p.ResolveBackend("brew")
	require.ErrorIs(t, err, core.ErrInstallerUnavailable)

	_, err = p.ResolveBackend("none")
	require.ErrorIs(t, err, core.ErrInstallerUnavailable)

	_, err = (&Platform{}).ResolveBackend("")
	require.ErrorIs(t, err, core.ErrInstallerUnavailable)
}
