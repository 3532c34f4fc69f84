// pkg/env/library.go
package env

import (
	"os"
	"path/filepath"
	"strings"
)

// Library is a library file found on disk
type Library struct {
	Name     string // Library name (e.g., "hdf5")
	Path     string // Absolute path to the library file
	IsStatic bool   // True for .a files
}

// FindLibrary looks for lib<name>.so, a versioned lib<name>.so.*, or
// lib<name>.a in dirs, in that order per directory
func FindLibrary(name string, dirs []string) *Library {
	shared := "lib" + name + SharedLibraryExtension()
	static := "lib" + name + ".a"

	for _, dir := range dirs {
		if p := filepath.Join(dir, shared); fileExists(p) {
			return &Library{Name: name, Path: p}
		}
		if matches, _ := filepath.Glob(filepath.Join(dir, shared+".*")); len(matches) > 0 {
			return &Library{Name: name, Path: matches[0]}
		}
		if p := filepath.Join(dir, static); fileExists(p) {
			return &Library{Name: name, Path: p, IsStatic: true}
		}
	}
	return nil
}

// DirsFromFlags extracts the directories of -L (or -I) style flags
func DirsFromFlags(flags, prefix string) []string {
	var dirs []string
	for _, part := range strings.Split(flags, prefix) {
		if d := strings.TrimSpace(part); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// HDF5Name picks the hdf5 library name to link against by scanning the
// -L directories of libDirFlags
func HDF5Name(libDirFlags string) string {
	for _, dir := range DirsFromFlags(libDirFlags, "-L") {
		if fileExists(filepath.Join(dir, "libhdf5.so")) {
			return "hdf5"
		}
		if fileExists(filepath.Join(dir, "libhdf5_serial.so")) {
			return "hdf5_serial"
		}
	}
	return "hdf5"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
