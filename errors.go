// errors.go
package buildconf

import (
	"fmt"

	"github.com/arc-language/buildconf/pkg/core"
)

// Re-export sentinels so callers only need this package
var (
	ErrUnknownKey           = core.ErrUnknownKey
	ErrMissingSection       = core.ErrMissingSection
	ErrConfigCorrupt        = core.ErrConfigCorrupt
	ErrCompilerMissing      = core.ErrCompilerMissing
	ErrCompilerTooOld       = core.ErrCompilerTooOld
	ErrCompilerVersion      = core.ErrCompilerVersion
	ErrInstallerUnavailable = core.ErrInstallerUnavailable
	ErrPackageNotFound      = core.ErrPackageNotFound
	ErrPlatformNotSupported = core.ErrPlatformNotSupported
	ErrHashMismatch         = core.ErrHashMismatch
)

// ExitError must end the process with its Code
type ExitError = core.ExitError

// Error wraps an error with additional context
type Error struct {
	Op  string // Operation that failed
	Key string // Probe, key or file if applicable
	Err error  // Underlying error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
