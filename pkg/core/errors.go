// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey indicates a key outside the recognized set
	ErrUnknownKey = errors.New("unknown configuration key")

	// ErrMissingSection indicates the config file has no [BUILD] section
	ErrMissingSection = errors.New("missing BUILD section")

	// ErrConfigCorrupt indicates the config file cannot be parsed
	ErrConfigCorrupt = errors.New("corrupt configuration file")

	// ErrCompilerMissing indicates a required compiler is not executable
	ErrCompilerMissing = errors.New("compiler not found")

	// ErrCompilerVersion indicates the compiler did not report a usable version
	ErrCompilerVersion = errors.New("cannot determine compiler version")

	// ErrCompilerTooOld indicates the compiler is below the minimum version
	ErrCompilerTooOld = errors.New("compiler version too old")

	// ErrInstallerUnavailable indicates no usable installer backend
	ErrInstallerUnavailable = errors.New("installer not available")

	// ErrPackageNotFound indicates the dependency is unknown to the registry or backend
	ErrPackageNotFound = errors.New("package not found")

	// ErrHashMismatch indicates a download does not match its published checksum
	ErrHashMismatch = errors.New("file hash mismatch")

	// ErrPlatformNotSupported indicates the host OS/arch cannot be served
	ErrPlatformNotSupported = errors.New("platform not supported")
)

// Exit codes of fatal errors
const (
	ExitConfig          = 1
	ExitCompilerMissing = 7
	ExitCompilerTooOld  = 8
	ExitCompilerVersion = 9
)

// ExitError is an error that must end the process with Code
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("fatal (exit %d): %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Fatal wraps err in an ExitError
func Fatal(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
