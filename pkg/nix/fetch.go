// pkg/nix/fetch.go
package nix

import (
	"bufio"
	"compress/bzip2"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix/nar"
	"zombiezen.com/go/nix/nixbase32"

	"github.com/arc-language/buildconf/pkg/core"
)

var (
	// ErrHashMismatch is returned when a downloaded archive does not match its narinfo
	ErrHashMismatch = core.ErrHashMismatch

	// ErrNoOutputs is returned when Hydra reports a build without outputs
	ErrNoOutputs = errors.New("no build outputs")
)

// Default endpoints: the public binary cache and the Hydra jobset
// whose latest builds it holds.
const (
	DefaultCacheURL = "https://cache.nixos.org"
	DefaultHydraURL = "https://hydra.nixos.org/job/nixos/trunk-combined"
)

// Options configures a Fetcher
type Options struct {
	CacheURL    string
	HydraURL    string
	InstallPath string
	Timeout     time.Duration
	Log         zerolog.Logger
}

// Fetcher installs prebuilt nixpkgs outputs from the binary cache
// into a plain prefix, without a Nix daemon.
type Fetcher struct {
	client *client
	opts   Options
	log    zerolog.Logger
}

// Build is the latest Hydra build of a nixpkgs attribute
type Build struct {
	// Name is "<pname>-<version>" taken from the store paths
	Name string
	// Outputs maps output name (out, dev, lib, ...) to its store hash
	Outputs map[string]string
}

type hydraBuild struct {
	BuildStatus  int `json:"buildstatus"`
	BuildOutputs map[string]struct {
		Path string `json:"path"`
	} `json:"buildoutputs"`
}

// NewFetcher returns a Fetcher with defaults applied to opts
func NewFetcher(opts Options) *Fetcher {
	if opts.CacheURL == "" {
		opts.CacheURL = DefaultCacheURL
	}
	if opts.HydraURL == "" {
		opts.HydraURL = DefaultHydraURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	opts.CacheURL = strings.TrimSuffix(opts.CacheURL, "/")
	opts.HydraURL = strings.TrimSuffix(opts.HydraURL, "/")

	return &Fetcher{
		client: newClient(opts.Timeout),
		opts:   opts,
		log:    opts.Log.With().Str("component", "nix").Logger(),
	}
}

// Resolve asks Hydra for the latest build of attr on platform
func (f *Fetcher) Resolve(ctx context.Context, attr string, platform Platform) (*Build, error) {
	url := fmt.Sprintf("%s/nixpkgs.%s.%s/latest", f.opts.HydraURL, attr, platform)
	f.log.Debug().Str("url", url).Msg("resolving via hydra")

	resp, err := f.client.get(ctx, url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("resolving %s for %s: %w", attr, platform, err)
	}
	defer resp.Body.Close()

	var hb hydraBuild
	if err := json.NewDecoder(resp.Body).Decode(&hb); err != nil {
		return nil, fmt.Errorf("parsing hydra response: %w", err)
	}
	if hb.BuildStatus != 0 {
		f.log.Warn().Str("attr", attr).Int("status", hb.BuildStatus).Msg("latest hydra build did not succeed")
	}

	build := &Build{Outputs: make(map[string]string)}
	for output, data := range hb.BuildOutputs {
		hash, name, ok := splitStorePath(data.Path)
		if !ok {
			f.log.Debug().Str("path", data.Path).Msg("skipping malformed store path")
			continue
		}
		build.Outputs[output] = hash

		if output != "out" {
			name = strings.TrimSuffix(name, "-"+output)
		}
		if build.Name == "" || output == "out" {
			build.Name = name
		}
	}
	if len(build.Outputs) == 0 {
		return nil, fmt.Errorf("%s: %w", attr, ErrNoOutputs)
	}
	return build, nil
}

// NARInfo fetches the narinfo of a store hash from the cache
func (f *Fetcher) NARInfo(ctx context.Context, hash string) (*NARInfo, error) {
	body, err := f.client.getString(ctx, fmt.Sprintf("%s/%s.narinfo", f.opts.CacheURL, hash))
	if err != nil {
		return nil, fmt.Errorf("fetching narinfo for %s: %w", hash, err)
	}
	return ParseNARInfo(body)
}

// Fetch resolves attr and unpacks every output into one prefix under
// InstallPath. It returns that prefix.
func (f *Fetcher) Fetch(ctx context.Context, attr string, platform Platform) (string, error) {
	if platform == "" {
		var err error
		if platform, err = DetectPlatform(); err != nil {
			return "", err
		}
	}

	build, err := f.Resolve(ctx, attr, platform)
	if err != nil {
		return "", err
	}

	prefix := filepath.Join(f.opts.InstallPath, build.Name)
	if err := os.MkdirAll(prefix, 0755); err != nil {
		return "", fmt.Errorf("creating prefix: %w", err)
	}

	outputs := make([]string, 0, len(build.Outputs))
	for o := range build.Outputs {
		outputs = append(outputs, o)
	}
	sort.Strings(outputs)

	for _, o := range outputs {
		hash := build.Outputs[o]
		f.log.Info().Str("attr", attr).Str("output", o).Str("hash", hash).Msg("fetching")
		if err := f.fetchOutput(ctx, hash, prefix); err != nil {
			return "", fmt.Errorf("output %s: %w", o, err)
		}
	}
	return prefix, nil
}

func (f *Fetcher) fetchOutput(ctx context.Context, hash, prefix string) error {
	info, err := f.NARInfo(ctx, hash)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "buildconf-nar-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := f.download(ctx, info, tmp); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	r, err := decompress(bufio.NewReader(tmp), info.Compression)
	if err != nil {
		return err
	}
	n, err := Extract(r, prefix)
	if err != nil {
		return err
	}
	f.log.Debug().Str("hash", hash).Int("files", n).Msg("extracted")
	return nil
}

// download writes the archive to w while checking its sha256
func (f *Fetcher) download(ctx context.Context, info *NARInfo, w io.Writer) error {
	resp, err := f.client.get(ctx, f.opts.CacheURL+"/"+info.URL, "")
	if err != nil {
		return fmt.Errorf("downloading %s: %w", info.URL, err)
	}
	defer resp.Body.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, h), resp.Body); err != nil {
		return fmt.Errorf("downloading %s: %w", info.URL, err)
	}

	if info.FileHash == "" {
		return nil
	}
	if got := nixbase32.EncodeToString(h.Sum(nil)); got != info.FileHash {
		return fmt.Errorf("%s: %w: expected %s, got %s", info.URL, ErrHashMismatch, info.FileHash, got)
	}
	return nil
}

func decompress(r io.Reader, compression string) (io.Reader, error) {
	switch compression {
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return xr, nil
	case CompressionBZip2:
		return bzip2.NewReader(r), nil
	case CompressionNone, "":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", compression)
	}
}

// Extract unpacks a NAR stream below dest and returns the number of
// regular files written.
func Extract(r io.Reader, dest string) (int, error) {
	nr := nar.NewReader(r)
	files := 0
	for {
		hdr, err := nr.Next()
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("reading nar: %w", err)
		}

		target := filepath.Join(dest, filepath.FromSlash(hdr.Path))
		if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
			return files, fmt.Errorf("nar entry %q escapes %s", hdr.Path, dest)
		}

		switch hdr.Mode.Type() {
		case os.ModeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return files, err
			}
		case os.ModeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return files, err
			}
			os.Remove(target)
			if err := os.Symlink(hdr.LinkTarget, target); err != nil {
				return files, err
			}
		case 0:
			if err := writeFile(target, hdr, nr); err != nil {
				return files, err
			}
			files++
		}
	}
}

func writeFile(target string, hdr *nar.Header, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	perm := os.FileMode(0644)
	if hdr.Mode&0111 != 0 {
		perm = 0755
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if n != hdr.Size {
		return fmt.Errorf("writing %s: short write (%d of %d bytes)", target, n, hdr.Size)
	}
	return nil
}

// splitStorePath splits /nix/store/<hash>-<name> into hash and name
func splitStorePath(p string) (hash, name string, ok bool) {
	base := strings.TrimPrefix(p, "/nix/store/")
	hash, name, ok = strings.Cut(base, "-")
	if !ok || hash == "" || name == "" {
		return "", "", false
	}
	return hash, name, true
}
