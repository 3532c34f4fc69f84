package probe

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
)

// Version is a major.minor toolchain version
type Version struct {
	Major int
	Minor int
}

// ParseVersion reads the first two components of a dotted version.
// A lone major component means minor 0.
func ParseVersion(s string) (Version, error) {
	tokens := strings.Split(strings.TrimSpace(s), ".")
	if len(tokens) < 2 {
		tokens = append(tokens, "0")
	}
	major, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	minor, err := strconv.Atoi(tokens[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{Major: major, Minor: minor}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

var minGCC = Version{4, 8}

// GCCVersion runs "<compiler> -dumpversion" and returns the parsed
// major.minor together with the full version string
func (s *Session) GCCVersion(ctx context.Context, compiler string) (Version, string, error) {
	out, err := s.run(ctx, compiler+" -dumpversion")
	if err != nil {
		return Version{}, "", fmt.Errorf("%s -dumpversion: %w", compiler, err)
	}
	if len(out) == 0 {
		return Version{}, "", fmt.Errorf("%s -dumpversion: no output", compiler)
	}
	full := strings.TrimSpace(out[0])
	v, err := ParseVersion(full)
	return v, full, err
}

var gccName = regexp.MustCompile(`(^|-)g(cc|\+\+)(-[0-9.]+)?$`)

// IsGCC reports whether compiler names gcc or g++, including versioned
// (g++-12) and cross (x86_64-linux-gnu-gcc) drivers
func IsGCC(compiler string) bool {
	fields := strings.Fields(compiler)
	if len(fields) == 0 {
		return false
	}
	return gccName.MatchString(filepath.Base(fields[len(fields)-1]))
}

// EnsureCompilerVersion enforces gcc/g++ 4.8 or newer. The process
// must stop on the returned *core.ExitError. Other compilers are not
// checked.
func (s *Session) EnsureCompilerVersion(ctx context.Context, compiler string) error {
	if !IsGCC(compiler) {
		s.Out.Red("Version detection for '%s' is not implemented.", compiler)
		return nil
	}

	if !s.checkProgram(compiler) {
		s.Out.Red("'%s' not found in the PATH.", compiler)
		return core.Fatal(core.ExitCompilerMissing, fmt.Errorf("%w: %s", core.ErrCompilerMissing, compiler))
	}

	v, full, err := s.GCCVersion(ctx, compiler)
	if err != nil {
		s.Out.Red("Cannot determine the version of '%s'.", compiler)
		return core.Fatal(core.ExitCompilerVersion, fmt.Errorf("%w: %v", core.ErrCompilerVersion, err))
	}
	if v.Less(minGCC) {
		s.Out.Red("Detected %s in version %s. Version %s or higher is required.", compiler, full, minGCC)
		return core.Fatal(core.ExitCompilerTooOld, fmt.Errorf("%w: %s %s", core.ErrCompilerTooOld, compiler, full))
	}
	s.Out.Green("%s %s detected", compiler, full)
	return nil
}

// ParseNVCCVersion extracts the toolkit version from "nvcc --version".
// The expected line is "Cuda compilation tools, release 8.0, V8.0.61".
func ParseNVCCVersion(lines []string) (Version, string, error) {
	for _, l := range lines {
		if !strings.Contains(l, "compilation tools") {
			continue
		}
		parts := strings.Split(strings.TrimSpace(l), ", ")
		full := strings.TrimLeft(parts[len(parts)-1], "V")
		v, err := ParseVersion(full)
		return v, full, err
	}
	return Version{}, "", fmt.Errorf("no 'compilation tools' line in nvcc output")
}

// CUDAVersion runs "<nvcc> --version"
func (s *Session) CUDAVersion(ctx context.Context, nvcc string) (Version, string, error) {
	out, err := s.run(ctx, nvcc+" --version")
	if err != nil {
		return Version{}, "", fmt.Errorf("%s --version: %w", nvcc, err)
	}
	return ParseNVCCVersion(out)
}

// gencode architectures per toolkit generation
var (
	archsCUDA11 = []int{60, 61, 75, 86}
	archsCUDA10 = []int{35, 50, 60, 61}
)

// NVCCFlags returns NVCC_CXXFLAGS for a toolkit version and host compiler.
// Only PTX is generated; SASS is built at runtime.
func NVCCFlags(v Version, cxx string) string {
	std, archs := "-std=c++11", archsCUDA10
	if v.Major >= 11 {
		std, archs = "-std=c++14", archsCUDA11
	}

	parts := []string{"--x cu -D_FORCE_INLINES -Xcompiler -fPIC", "-ccbin " + cxx, std, "--expt-extended-lambda"}
	for _, a := range archs {
		parts = append(parts, fmt.Sprintf("-gencode=arch=compute_%d,code=compute_%d", a, a))
	}
	return strings.Join(parts, " ")
}

// gccCandidates is ordered from newest to oldest
var gccCandidates = []string{
	"10.2", "10.1", "10",
	"9.3", "9.2", "9.1", "9",
	"8.4", "8.3", "8.2", "8.1", "8",
	"7.5", "7.4", "7.3", "7.2", "7.1", "7",
	"6.5", "6.4", "6.3", "6.2", "6.1", "6",
	"5.5", "5.4", "5.3", "5.2", "5.1", "5",
	"4.9", "4.8",
}

// CompatibleGCC lists the g++ versions usable as nvcc host compiler,
// newest first. Unsupported toolkits give an empty list.
func CompatibleGCC(nvcc Version) []string {
	var floor string
	switch {
	case in(nvcc, Version{8, 0}, Version{9, 0}):
		floor = "5.3"
	case in(nvcc, Version{9, 0}, Version{9, 2}):
		floor = "5.5"
	case in(nvcc, Version{9, 2}, Version{10, 1}):
		floor = "7.3"
	case !nvcc.Less(Version{10, 1}) && !(Version{10, 2}).Less(nvcc):
		floor = "8.4"
	// no toolkit was released between 10.2 and 11.0
	case (Version{10, 2}).Less(nvcc) && !(Version{11, 2}).Less(nvcc):
		floor = "9.3"
	default:
		return []string{}
	}

	for i, c := range gccCandidates {
		if c == floor {
			out := make([]string, len(gccCandidates)-i)
			copy(out, gccCandidates[i:])
			return out
		}
	}
	return []string{}
}

// in reports lo <= v < hi
func in(v, lo, hi Version) bool {
	return !v.Less(lo) && v.Less(hi)
}
