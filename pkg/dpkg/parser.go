// pkg/dpkg/parser.go
package dpkg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Package is one stanza of a Packages index
type Package struct {
	Package      string
	Version      string
	Architecture string
	Priority     string
	Depends      []string
	Filename     string
	Size         int64
	SHA256       string
	Description  string // first line only
}

// ParsePackages parses a Debian Packages file. Stanzas without a
// Package field are dropped.
func ParsePackages(r io.Reader) ([]*Package, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var packages []*Package
	fields := make(map[string]string)
	flush := func() {
		if p := newPackage(fields); p != nil {
			packages = append(packages, p)
		}
		clear(fields)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case line[0] == ' ' || line[0] == '\t':
			// multi-line field body, only Description has one we read
		default:
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			if key == "Package" && fields["Package"] != "" {
				flush()
			}
			fields[key] = value
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning packages file: %w", err)
	}
	return packages, nil
}

func newPackage(f map[string]string) *Package {
	if f["Package"] == "" {
		return nil
	}
	p := &Package{
		Package:      f["Package"],
		Version:      f["Version"],
		Architecture: f["Architecture"],
		Priority:     f["Priority"],
		Filename:     f["Filename"],
		SHA256:       f["SHA256"],
		Description:  f["Description"],
	}
	p.Size, _ = strconv.ParseInt(f["Size"], 10, 64)
	p.Depends = append(dependencyNames(f["Pre-Depends"]), dependencyNames(f["Depends"])...)
	return p
}

// dependencyNames reduces a dependency field to package names: the first
// alternative of each clause, without version or architecture qualifiers.
func dependencyNames(field string) []string {
	var names []string
	for _, clause := range strings.Split(field, ",") {
		name, _, _ := strings.Cut(clause, "|")
		name, _, _ = strings.Cut(name, "(")
		name, _, _ = strings.Cut(name, ":")
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
