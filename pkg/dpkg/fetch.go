// pkg/dpkg/fetch.go
package dpkg

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"

	"github.com/arc-language/buildconf/pkg/core"
)

var (
	// ErrHashMismatch is returned when a .deb does not match its index entry
	ErrHashMismatch = core.ErrHashMismatch

	// ErrNotFound is returned when the index has no such package
	ErrNotFound = errors.New("package not in index")

	// ErrUnsafePath is returned for archive members escaping the prefix
	ErrUnsafePath = errors.New("unsafe path in archive")
)

// Options configures a Fetcher
type Options struct {
	MirrorURL   string
	Release     string
	Components  []string
	Arch        Architecture
	InstallPath string
	CachePath   string
	Timeout     time.Duration
	Log         zerolog.Logger
}

// Fetcher unpacks .deb packages from an apt mirror into a plain prefix,
// without root and without dpkg. Maintainer scripts never run.
type Fetcher struct {
	client *client
	opts   Options
	log    zerolog.Logger

	index map[string][]*Package
}

// NewFetcher returns a Fetcher with defaults applied to opts. An empty
// Arch is detected; on failure Fetch reports the error.
func NewFetcher(opts Options) *Fetcher {
	if opts.Arch == "" {
		if arch, err := DetectArchitecture(); err == nil {
			opts.Arch = arch
		}
	}
	if opts.MirrorURL == "" {
		opts.MirrorURL = UbuntuMirrorURL
		if opts.Arch.UsesPortsRepo() {
			opts.MirrorURL = UbuntuPortsURL
		}
	}
	if opts.Release == "" {
		opts.Release = DefaultRelease
	}
	if len(opts.Components) == 0 {
		opts.Components = UbuntuComponents
	}
	if opts.CachePath == "" {
		opts.CachePath = filepath.Join(opts.InstallPath, "cache", "dpkg")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	opts.MirrorURL = strings.TrimSuffix(opts.MirrorURL, "/")

	return &Fetcher{
		client: newClient(opts.Timeout),
		opts:   opts,
		log:    opts.Log.With().Str("backend", "dpkg").Logger(),
	}
}

// Prefix is the root every package is unpacked into
func (f *Fetcher) Prefix() string {
	return filepath.Join(f.opts.InstallPath, "dpkg")
}

// Fetch unpacks name and its direct dependencies into Prefix and
// returns Prefix. Dependencies missing from the index or with
// required/important priority are assumed present on the host.
func (f *Fetcher) Fetch(ctx context.Context, name, version string) (string, error) {
	if f.opts.Arch == "" {
		return "", fmt.Errorf("dpkg: unknown architecture")
	}
	if err := f.loadIndex(ctx); err != nil {
		return "", err
	}

	pkg, err := f.find(name, version)
	if err != nil {
		return "", err
	}
	todo := []*Package{pkg}
	for _, dep := range pkg.Depends {
		d, err := f.find(dep, "")
		if err != nil {
			f.log.Debug().Str("pkg", name).Str("dep", dep).Msg("dependency not in index, skipping")
			continue
		}
		if d.Priority == "required" || d.Priority == "important" {
			continue
		}
		todo = append(todo, d)
	}

	for _, p := range todo {
		if err := f.install(ctx, p); err != nil {
			return "", fmt.Errorf("installing %s: %w", p.Package, err)
		}
	}
	return f.Prefix(), nil
}

// loadIndex downloads the Packages index of every component once
func (f *Fetcher) loadIndex(ctx context.Context) error {
	if f.index != nil {
		return nil
	}

	index := make(map[string][]*Package)
	for _, component := range f.opts.Components {
		base := fmt.Sprintf("%s/dists/%s/%s/binary-%s/Packages", f.opts.MirrorURL, f.opts.Release, component, f.opts.Arch)
		pkgs, err := f.fetchPackages(ctx, base)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Str("component", component).Msg("skipping component")
			continue
		}
		for _, p := range pkgs {
			index[p.Package] = append(index[p.Package], p)
		}
		f.log.Debug().Str("component", component).Int("packages", len(pkgs)).Msg("index loaded")
	}

	if len(index) == 0 {
		return fmt.Errorf("dpkg: no package index for %s/%s at %s", f.opts.Release, f.opts.Arch, f.opts.MirrorURL)
	}
	f.index = index
	return nil
}

// fetchPackages tries Packages.xz, then Packages.gz
func (f *Fetcher) fetchPackages(ctx context.Context, base string) ([]*Package, error) {
	resp, err := f.client.get(ctx, base+".xz")
	if err == nil {
		defer resp.Body.Close()
		r, err := xz.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return ParsePackages(r)
	}

	resp, err = f.client.get(ctx, base+".gz")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	r, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer r.Close()
	return ParsePackages(r)
}

func (f *Fetcher) find(name, version string) (*Package, error) {
	for _, p := range f.index[name] {
		if version == "" || p.Version == version {
			return p, nil
		}
	}
	if version != "" {
		return nil, fmt.Errorf("%w: %s version %s for %s", ErrNotFound, name, version, f.opts.Arch)
	}
	return nil, fmt.Errorf("%w: %s for %s", ErrNotFound, name, f.opts.Arch)
}

// install downloads, verifies and unpacks one package
func (f *Fetcher) install(ctx context.Context, p *Package) error {
	log := f.log.With().Str("pkg", p.Package).Str("version", p.Version).Logger()

	debPath := filepath.Join(f.opts.CachePath, path.Base(p.Filename))
	if err := f.download(ctx, f.opts.MirrorURL+"/"+p.Filename, debPath, p.SHA256); err != nil {
		return err
	}
	defer os.Remove(debPath)

	if err := Extract(debPath, f.Prefix()); err != nil {
		return err
	}
	log.Info().Str("prefix", f.Prefix()).Msg("package unpacked")
	return nil
}

// download stores url at dest, checking sha256 when one is given
func (f *Fetcher) download(ctx context.Context, url, dest, sum string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	resp, err := f.client.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, h), resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	f.log.Debug().Str("url", url).Int64("bytes", written).Msg("downloaded")

	if sum != "" {
		if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, sum) {
			os.Remove(dest)
			return fmt.Errorf("%w: %s: expected %s, got %s", ErrHashMismatch, path.Base(dest), sum, got)
		}
	}
	return nil
}

// Extract unpacks the data archive of a .deb below dest
func Extract(debPath, dest string) error {
	f, err := os.Open(debPath)
	if err != nil {
		return fmt.Errorf("opening .deb file: %w", err)
	}
	defer f.Close()

	arReader := ar.NewReader(f)
	for {
		header, err := arReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading ar entry: %w", err)
		}

		name := strings.TrimRight(header.Name, " /")
		if strings.HasPrefix(name, "data.tar") {
			return extractData(arReader, name, dest)
		}
	}
	return fmt.Errorf("no data.tar.* found in %s", filepath.Base(debPath))
}

func extractData(r io.Reader, name, dest string) error {
	var tr *tar.Reader
	switch {
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		tr = tar.NewReader(xr)
	case strings.HasSuffix(name, ".gz"):
		gr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gr.Close()
		tr = tar.NewReader(gr)
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating zstd reader: %w", err)
		}
		defer zr.Close()
		tr = tar.NewReader(zr)
	case name == "data.tar":
		tr = tar.NewReader(r)
	default:
		return fmt.Errorf("unsupported data archive %s", name)
	}

	dest = filepath.Clean(dest)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		rel := strings.TrimPrefix(header.Name, "./")
		if rel == "" || rel == "." {
			continue
		}
		target, err := within(dest, rel)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink %s -> %s: %w", target, header.Linkname, err)
			}

		case tar.TypeLink:
			src, err := within(dest, strings.TrimPrefix(header.Linkname, "./"))
			if err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Link(src, target); err != nil {
				return fmt.Errorf("creating link %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode)&os.ModePerm)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", target, err)
			}
			_, err = io.Copy(out, tr)
			out.Close()
			if err != nil {
				return fmt.Errorf("writing file %s: %w", target, err)
			}
		}
	}
}

// within joins rel onto dest and rejects results outside dest
func within(dest, rel string) (string, error) {
	target := filepath.Join(dest, rel)
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	return target, nil
}
