package shell

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates a program is not on the search path
var ErrNotFound = errors.New("executable not found")

// LookPath finds name in the PATH returned by getenv. Names containing
// a slash are checked directly.
func LookPath(getenv func(string) string, name string) (string, error) {
	return LookPathIn(getenv("PATH"), name)
}

// LookPathIn searches the colon separated pathList
func LookPathIn(pathList, name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}
	if strings.Contains(name, "/") {
		if isExecutable(name) {
			return name, nil
		}
		return "", ErrNotFound
	}

	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

// CheckProgram reports whether name is an executable on PATH
func CheckProgram(getenv func(string) string, name string) bool {
	_, err := LookPath(getenv, name)
	return err == nil
}

// WhereIs returns the directory holding name, searching pathList (or
// PATH when empty). With findReal the symlinks are resolved first.
// An empty string means not found.
func WhereIs(getenv func(string) string, name string, findReal bool, pathList string) string {
	if pathList == "" {
		pathList = getenv("PATH")
	}
	p, err := LookPathIn(pathList, name)
	if err != nil {
		return ""
	}
	if findReal {
		if real, err := filepath.EvalSymlinks(p); err == nil {
			p = real
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Dir(p)
}

// FindFileInDirs globs pattern inside each dir (dirs may be globs
// themselves) and returns the directory of the first match
func FindFileInDirs(pattern string, dirs ...string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil || len(matches) == 0 {
			continue
		}
		return filepath.Dir(matches[0])
	}
	return ""
}

// IsFile reports whether path is an existing regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
