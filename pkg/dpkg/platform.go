// pkg/dpkg/platform.go
package dpkg

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Architecture represents a Debian architecture
type Architecture string

const (
	ArchAmd64   Architecture = "amd64"
	ArchI386    Architecture = "i386"
	ArchArm64   Architecture = "arm64"
	ArchArmhf   Architecture = "armhf"
	ArchPpc64el Architecture = "ppc64el"
	ArchS390x   Architecture = "s390x"
	ArchRiscv64 Architecture = "riscv64"
)

// DetectArchitecture maps the running GOARCH to its Debian name
func DetectArchitecture() (Architecture, error) {
	if runtime.GOOS != "linux" {
		return "", fmt.Errorf("dpkg backend only supports Linux, got: %s", runtime.GOOS)
	}

	switch runtime.GOARCH {
	case "amd64":
		return ArchAmd64, nil
	case "386":
		return ArchI386, nil
	case "arm64":
		return ArchArm64, nil
	case "arm":
		return ArchArmhf, nil
	case "ppc64le":
		return ArchPpc64el, nil
	case "s390x":
		return ArchS390x, nil
	case "riscv64":
		return ArchRiscv64, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", runtime.GOARCH)
	}
}

// UsesPortsRepo reports whether Ubuntu serves a from ports.ubuntu.com
func (a Architecture) UsesPortsRepo() bool {
	return a != ArchAmd64 && a != ArchI386
}

// Release identifies the host distribution from <root>/etc/os-release
type Release struct {
	ID       string // ubuntu, debian
	Codename string // noble, bookworm
}

// DetectRelease reads ID and VERSION_CODENAME. Missing values are empty.
func DetectRelease(root string) Release {
	var r Release
	f, err := os.Open(filepath.Join(root, "etc", "os-release"))
	if err != nil {
		return r
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.Trim(value, `"'`))
		switch key {
		case "ID":
			r.ID = value
		case "VERSION_CODENAME":
			r.Codename = value
		}
	}
	return r
}
