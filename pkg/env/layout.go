// pkg/env/layout.go
package env

import (
	"os"
	"path/filepath"
	"runtime"
)

// Layout lists directories RELATIVE to an installation prefix
type Layout struct {
	Libraries []string
	Includes  []string
	Binaries  []string
}

func multiarch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64-linux-gnu"
	case "arm64":
		return "aarch64-linux-gnu"
	default:
		return runtime.GOARCH + "-linux-gnu"
	}
}

// LayoutFor returns where a backend puts libraries, headers and programs
func LayoutFor(backend string) Layout {
	switch backend {
	case "apt", "dpkg":
		// Debian splits per architecture and keeps some headers there too
		return Layout{
			Libraries: []string{
				filepath.Join("usr", "lib", multiarch()),
				filepath.Join("usr", "lib", multiarch(), "hdf5", "serial"),
				filepath.Join("usr", "lib"),
			},
			Includes: []string{
				filepath.Join("usr", "include"),
				filepath.Join("usr", "include", "hdf5", "serial"),
			},
			Binaries: []string{filepath.Join("usr", "bin")},
		}
	case "dnf", "zypper":
		return Layout{
			Libraries: []string{filepath.Join("usr", "lib64"), filepath.Join("usr", "lib")},
			Includes:  []string{filepath.Join("usr", "include")},
			Binaries:  []string{filepath.Join("usr", "bin")},
		}
	case "pacman", "apk":
		return Layout{
			Libraries: []string{filepath.Join("usr", "lib")},
			Includes:  []string{filepath.Join("usr", "include")},
			Binaries:  []string{filepath.Join("usr", "bin")},
		}
	case "conda", "brew", "nix":
		// prefix-rooted trees
		return Layout{
			Libraries: []string{"lib", "lib64"},
			Includes:  []string{"include"},
			Binaries:  []string{"bin"},
		}
	default:
		return Layout{
			Libraries: []string{filepath.Join("usr", "lib"), "lib"},
			Includes:  []string{filepath.Join("usr", "include"), "include"},
			Binaries:  []string{filepath.Join("usr", "bin"), "bin"},
		}
	}
}

// Resolve joins each relative dir with root and keeps the existing ones
func (l Layout) Resolve(root string) (libs, includes, bins []string) {
	return existing(root, l.Libraries), existing(root, l.Includes), existing(root, l.Binaries)
}

func existing(root string, rel []string) []string {
	var out []string
	for _, r := range rel {
		p := filepath.Join(root, r)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// SharedLibraryExtension returns the platform's shared object suffix
func SharedLibraryExtension() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}
