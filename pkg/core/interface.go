// pkg/core/interface.go
package core

import "context"

// Installer installs a missing build dependency
type Installer interface {
	// Name returns the backend name (e.g., "conda", "apt")
	Name() string

	// Install installs the backend-specific package
	Install(ctx context.Context, pkg string, opts *InstallOptions) (*Installation, error)

	// IsAvailable checks if this backend is usable on the system
	IsAvailable() bool
}

// InstallOptions configures dependency installation
type InstallOptions struct {
	Version    string // Specific version to install
	VerifyHash bool   // Whether to verify checksums of downloaded archives
	Platform   string // Target platform (auto-detected if empty)
}
