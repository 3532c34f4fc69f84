// pkg/platform/detect.go
package platform

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/arc-language/buildconf/pkg/shell"
)

// Platform represents the detected system platform
type Platform struct {
	OS        string   // linux, darwin
	Arch      string   // amd64, arm64
	Distro    string   // os-release ID (e.g., ubuntu)
	Like      []string // os-release ID_LIKE
	Available []string // Usable installer backends
	Preferred string   // Installer backend to use in auto mode
}

// managerCommands maps a backend to the program that proves it exists
var managerCommands = []struct {
	backend string
	command string
}{
	{"conda", "conda"},
	{"apt", "apt-get"},
	{"dnf", "dnf"},
	{"pacman", "pacman"},
	{"zypper", "zypper"},
	{"apk", "apk"},
	{"brew", "brew"},
}

// Detector inspects a (possibly fake) root filesystem and PATH
type Detector struct {
	Root   string
	GOOS   string
	GOARCH string
	Getenv func(string) string
}

// Detect detects the current platform and available installers
func Detect() (*Platform, error) {
	d := &Detector{Root: "/", GOOS: runtime.GOOS, GOARCH: runtime.GOARCH, Getenv: os.Getenv}
	return d.Detect()
}

func (d *Detector) Detect() (*Platform, error) {
	p := &Platform{
		OS:        d.GOOS,
		Arch:      d.GOARCH,
		Available: []string{},
	}

	switch p.OS {
	case "linux", "darwin":
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", p.OS)
	}

	if p.OS == "linux" {
		p.Distro, p.Like = d.osRelease()
	}

	for _, m := range managerCommands {
		if shell.CheckProgram(d.Getenv, m.command) {
			p.Available = append(p.Available, m.backend)
		}
	}
	// these talk to the binary caches directly
	p.Available = append(p.Available, "nix")
	if p.OS == "linux" && p.isLike("ubuntu", "debian") {
		p.Available = append(p.Available, "dpkg")
	}

	p.Preferred = d.preferred(p)
	return p, nil
}

func (d *Detector) preferred(p *Platform) string {
	// an active conda env wins, as installs then land inside it
	if slices.Contains(p.Available, "conda") && d.Getenv("CONDA_PREFIX") != "" {
		return "conda"
	}

	var native string
	switch {
	case p.OS == "darwin":
		native = "brew"
	case p.isLike("alpine"):
		native = "apk"
	case p.isLike("fedora", "rhel", "centos"):
		native = "dnf"
	case p.isLike("arch", "manjaro"):
		native = "pacman"
	case p.isLike("opensuse", "suse", "sles"):
		native = "zypper"
	case p.isLike("ubuntu", "debian"):
		native = "apt"
	}
	if native != "" && slices.Contains(p.Available, native) {
		return native
	}

	if len(p.Available) > 0 {
		return p.Available[0]
	}
	return ""
}

// osRelease parses ID and ID_LIKE from <root>/etc/os-release, falling
// back to the distro marker files
func (d *Detector) osRelease() (string, []string) {
	data, err := os.ReadFile(filepath.Join(d.Root, "etc", "os-release"))
	if err != nil {
		for file, id := range map[string]string{
			"alpine-release": "alpine",
			"fedora-release": "fedora",
			"arch-release":   "arch",
			"SuSE-release":   "opensuse",
		} {
			if _, err := os.Stat(filepath.Join(d.Root, "etc", file)); err == nil {
				return id, nil
			}
		}
		return "", nil
	}

	var id string
	var like []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.Trim(value, `"'`))
		switch key {
		case "ID":
			id = value
		case "ID_LIKE":
			like = strings.Fields(value)
		}
	}
	return id, like
}

func (p *Platform) isLike(ids ...string) bool {
	for _, id := range ids {
		if strings.HasPrefix(p.Distro, id) || slices.Contains(p.Like, id) {
			return true
		}
	}
	return false
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	distro := p.Distro
	if distro == "" {
		distro = "unknown"
	}
	return fmt.Sprintf("%s/%s %s (available: %v, preferred: %s)",
		p.OS, p.Arch, distro, p.Available, p.Preferred)
}
