package probe

import (
	"context"
	"fmt"
	"strings"
)

// PythonInfo is what the build needs to know about the interpreter
type PythonInfo struct {
	Data         string // sysconfig "data" prefix
	Include      string // Python.h directory
	Version      Version
	NumpyInclude string
}

const sysconfigScript = `import sys, sysconfig; p = sysconfig.get_paths(); ` +
	`print(p['data']); print(p['include']); print('%d.%d' % sys.version_info[:2])`

const numpyScript = `import numpy; print(numpy.get_include())`

// QueryPython asks the configured interpreter for its install paths.
// A missing numpy leaves NumpyInclude empty.
func (s *Session) QueryPython(ctx context.Context) (*PythonInfo, error) {
	out, err := s.run(ctx, fmt.Sprintf("%s -c \"%s\"", s.Python, sysconfigScript))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.Python, err)
	}
	if len(out) < 3 {
		return nil, fmt.Errorf("querying %s: unexpected output %q", s.Python, out)
	}
	// interpreter warnings may precede the answer
	out = out[len(out)-3:]

	v, err := ParseVersion(out[2])
	if err != nil {
		return nil, err
	}
	info := &PythonInfo{
		Data:    strings.TrimSpace(out[0]),
		Include: strings.TrimSpace(out[1]),
		Version: v,
	}

	if np, err := s.run(ctx, fmt.Sprintf("%s -c \"%s\"", s.Python, numpyScript)); err == nil && len(np) > 0 {
		info.NumpyInclude = strings.TrimSpace(np[len(np)-1])
	} else {
		s.Log.Warn().Str("python", s.Python).Msg("numpy not importable")
	}
	return info, nil
}

// PythonLib is the library name to link, e.g. python3.10 or python3.7m.
// The malloc flavour suffix is gone since 3.8.
func (p *PythonInfo) PythonLib() string {
	malloc := ""
	if p.Version.Minor < 8 {
		malloc = "m"
	}
	return fmt.Sprintf("python%d.%d%s", p.Version.Major, p.Version.Minor, malloc)
}

// IncFlags returns -I flags for Python.h and the numpy headers
func (p *PythonInfo) IncFlags() string {
	var flags []string
	for _, d := range []string{p.Include, p.NumpyInclude} {
		if d != "" {
			flags = append(flags, "-I"+d)
		}
	}
	return strings.Join(flags, " ")
}
