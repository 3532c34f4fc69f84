// pkg/platform/resolver.go
package platform

import (
	"fmt"
	"slices"

	"github.com/arc-language/buildconf/pkg/core"
)

// ResolveBackend picks the installer backend to use.
// Priority:
// 1. Explicitly requested backend (must be available)
// 2. Platform preferred backend ("auto")
func (p *Platform) ResolveBackend(requested string) (string, error) {
	switch requested {
	case "none":
		return "", fmt.Errorf("%w: installs disabled", core.ErrInstallerUnavailable)
	case "", "auto":
		if p.Preferred == "" {
			return "", fmt.Errorf("%w: no package managers available", core.ErrInstallerUnavailable)
		}
		return p.Preferred, nil
	}

	if !slices.Contains(p.Available, requested) {
		return "", fmt.Errorf("%w: backend '%s' is not available on this system", core.ErrInstallerUnavailable, requested)
	}
	return requested, nil
}
