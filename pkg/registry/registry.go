// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/buildconf/pkg/core"
)

//go:embed deps.toml
var builtinDeps string

// Entry is the metadata of one build dependency
type Entry struct {
	Name     string            `toml:"name"`
	Libs     []string          `toml:"libs"`
	Bins     []string          `toml:"bins"`
	Backends map[string]string `toml:"backends"`
}

type depsFile struct {
	Deps map[string]*Entry `toml:"deps"`
}

// Registry maps canonical dependency names to backend packages
type Registry struct {
	overrideDir string
	builtin     map[string]*Entry
}

// New parses the built-in table. When overrideDir is set,
// <overrideDir>/<name>/index.toml takes precedence.
func New(overrideDir string) (*Registry, error) {
	var f depsFile
	if _, err := toml.Decode(builtinDeps, &f); err != nil {
		return nil, fmt.Errorf("registry: parsing built-in deps: %w", err)
	}
	return &Registry{overrideDir: overrideDir, builtin: f.Deps}, nil
}

// Resolve takes a canonical package name and a backend,
// returns the backend-specific package name.
// e.g. Resolve("fftw", "apt") -> "libfftw3-dev"
func (r *Registry) Resolve(name string, backend string) (string, error) {
	entry, err := r.Load(name)
	if err != nil {
		return "", err
	}

	pkgName, ok := entry.Backends[backend]
	if !ok {
		return "", fmt.Errorf("%w: '%s' has no entry for backend '%s'", core.ErrPackageNotFound, name, backend)
	}

	return pkgName, nil
}

// Load returns the entry for name
func (r *Registry) Load(name string) (*Entry, error) {
	if r.overrideDir != "" {
		path := filepath.Join(r.overrideDir, name, "index.toml")
		if data, err := os.ReadFile(path); err == nil {
			var entry Entry
			if _, err := toml.Decode(string(data), &entry); err != nil {
				return nil, fmt.Errorf("registry: failed to parse '%s': %w", name, err)
			}
			if entry.Name == "" {
				entry.Name = name
			}
			return &entry, nil
		}
	}

	entry, ok := r.builtin[name]
	if !ok {
		return nil, fmt.Errorf("%w: registry has no '%s'", core.ErrPackageNotFound, name)
	}
	return entry, nil
}

// Names lists the built-in dependency names and those with an
// index.toml in the override dir
func (r *Registry) Names() []string {
	seen := make(map[string]bool, len(r.builtin))
	for n := range r.builtin {
		seen[n] = true
	}
	if r.overrideDir != "" {
		entries, _ := os.ReadDir(r.overrideDir)
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(r.overrideDir, e.Name(), "index.toml")); err == nil {
				seen[e.Name()] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
