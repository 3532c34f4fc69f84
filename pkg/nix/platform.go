// platform.go
package nix

import (
	"fmt"
	"runtime"

	"github.com/arc-language/buildconf/pkg/core"
)

// Platform represents a Nix system double
type Platform string

const (
	PlatformX8664Linux    Platform = "x86_64-linux"
	PlatformAarch64Linux  Platform = "aarch64-linux"
	PlatformX8664Darwin   Platform = "x86_64-darwin"
	PlatformAarch64Darwin Platform = "aarch64-darwin"
)

// DetectPlatform maps the running GOOS/GOARCH to a Nix system
func DetectPlatform() (Platform, error) {
	return platformFor(runtime.GOOS, runtime.GOARCH)
}

func platformFor(goos, goarch string) (Platform, error) {
	systems := map[string]Platform{
		"linux/amd64":  PlatformX8664Linux,
		"linux/arm64":  PlatformAarch64Linux,
		"darwin/amd64": PlatformX8664Darwin,
		"darwin/arm64": PlatformAarch64Darwin,
	}
	if p, ok := systems[goos+"/"+goarch]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: nix binary cache has no %s/%s", core.ErrPlatformNotSupported, goos, goarch)
}
