// pkg/registry/sync.go
package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
)

const (
	DefaultRepoURL = "https://github.com/arc-language/upkg"
	DefaultBranch  = "main"
)

// SyncOptions selects the repository the override dir is refreshed from
type SyncOptions struct {
	URL    string
	Branch string // remote HEAD when empty
	Depth  int
	Log    zerolog.Logger
}

// Sync clones the registry repository and copies every
// deps/<name>/index.toml into dir, returning the dependencies updated.
func Sync(ctx context.Context, dir string, opts SyncOptions) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("registry: no registry_dir configured")
	}
	if opts.URL == "" {
		opts.URL = DefaultRepoURL
	}

	tempDir, err := os.MkdirTemp("", "buildconf-registry-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	opts.Log.Info().Str("url", opts.URL).Str("branch", opts.Branch).Msg("updating registry")

	clone := &git.CloneOptions{
		URL:          opts.URL,
		SingleBranch: true,
		Depth:        opts.Depth,
	}
	if opts.Branch != "" {
		clone.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}
	if _, err := git.PlainCloneContext(ctx, tempDir, false, clone); err != nil {
		return nil, fmt.Errorf("git clone %s: %w", opts.URL, err)
	}

	entries, err := os.ReadDir(filepath.Join(tempDir, "deps"))
	if err != nil {
		return nil, fmt.Errorf("registry: %s has no deps/ directory: %w", opts.URL, err)
	}

	var updated []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		src := filepath.Join(tempDir, "deps", e.Name(), "index.toml")
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, filepath.Join(dir, e.Name(), "index.toml")); err != nil {
			return updated, fmt.Errorf("registry: copying %s: %w", e.Name(), err)
		}
		updated = append(updated, e.Name())
	}
	opts.Log.Debug().Int("deps", len(updated)).Str("dir", dir).Msg("registry updated")
	return updated, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
