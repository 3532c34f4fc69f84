package installer

import (
	"context"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/nix"
)

// Nix unpacks binary cache outputs under InstallPath. It needs neither
// root nor a Nix installation.
type Nix struct {
	fetcher *nix.Fetcher
}

// NewNix creates the nix backend
func NewNix(cfg *Config) *Nix {
	return &Nix{fetcher: nix.NewFetcher(nix.Options{
		CacheURL:    cfg.CacheURL,
		InstallPath: cfg.InstallPath,
		Timeout:     cfg.Timeout,
		Log:         cfg.Log,
	})}
}

func (n *Nix) Name() string { return "nix" }

func (n *Nix) IsAvailable() bool {
	_, err := nix.DetectPlatform()
	return err == nil
}

func (n *Nix) Install(ctx context.Context, pkg string, opts *core.InstallOptions) (*core.Installation, error) {
	var platform nix.Platform
	if opts != nil {
		platform = nix.Platform(opts.Platform)
	}

	prefix, err := n.fetcher.Fetch(ctx, pkg, platform)
	if err != nil {
		return nil, err
	}
	return installation(pkg, "nix", prefix), nil
}
