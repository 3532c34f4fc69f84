package installer

import (
	"context"
	"runtime"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/dpkg"
)

// Dpkg unpacks .deb packages from the distribution mirror under
// InstallPath. It needs neither root nor apt.
type Dpkg struct {
	fetcher *dpkg.Fetcher
}

// NewDpkg creates the dpkg backend for the host release
func NewDpkg(cfg *Config) *Dpkg {
	opts := dpkg.Options{
		MirrorURL:   cfg.DebMirror,
		InstallPath: cfg.InstallPath,
		Timeout:     cfg.Timeout,
		Log:         cfg.Log,
	}

	rel := dpkg.DetectRelease(cfg.Root)
	opts.Release = rel.Codename
	if rel.ID == "debian" {
		if opts.MirrorURL == "" {
			opts.MirrorURL = dpkg.DebianMirrorURL
		}
		opts.Components = dpkg.DebianComponents
	}
	return &Dpkg{fetcher: dpkg.NewFetcher(opts)}
}

func (d *Dpkg) Name() string { return "dpkg" }

func (d *Dpkg) IsAvailable() bool {
	_, err := dpkg.DetectArchitecture()
	return runtime.GOOS == "linux" && err == nil
}

func (d *Dpkg) Install(ctx context.Context, pkg string, opts *core.InstallOptions) (*core.Installation, error) {
	var version string
	if opts != nil {
		version = opts.Version
	}

	prefix, err := d.fetcher.Fetch(ctx, pkg, version)
	if err != nil {
		return nil, err
	}
	return installation(pkg, "dpkg", prefix), nil
}
