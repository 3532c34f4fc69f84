// pkg/env/log.go
package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Position selects how a value merges into an existing variable
type Position string

const (
	Begin   Position = "begin"
	End     Position = "end"
	Replace Position = "replace"
)

// Entry is one recorded mutation
type Entry struct {
	Key   string
	Value string
	Pos   Position
}

// Log records environment mutations and folds them into variables
type Log struct {
	entries []Entry
	vars    map[string]string
}

// NewLog returns an empty log
func NewLog() *Log {
	return &Log{vars: make(map[string]string)}
}

// Update records key=value. String values are path list elements and
// are prepended or appended with ':' to an existing variable; other
// values only land on first insert or with Replace.
func (l *Log) Update(pos Position, realPath bool, key string, value interface{}) {
	var (
		s        string
		isString bool
	)
	switch v := value.(type) {
	case string:
		s, isString = v, true
		if realPath && s != "" {
			s = resolvePath(s)
		}
	case bool:
		s = "False"
		if v {
			s = "True"
		}
	default:
		s = fmt.Sprint(v)
	}

	l.entries = append(l.entries, Entry{Key: key, Value: s, Pos: pos})

	current, exists := l.vars[key]
	switch {
	case !exists:
		l.vars[key] = s
	case pos == Begin && isString:
		l.vars[key] = s + string(os.PathListSeparator) + current
	case pos == End && isString:
		l.vars[key] = current + string(os.PathListSeparator) + s
	case pos == Replace:
		l.vars[key] = s
	}
}

// Entries returns the mutations in the order they were recorded
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Vars returns the folded variables
func (l *Log) Vars() map[string]string {
	out := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		out[k] = v
	}
	return out
}

// Get returns the folded value of key
func (l *Log) Get(key string) (string, bool) {
	v, ok := l.vars[key]
	return v, ok
}

// Write persists the folded variables. A .json path gets a JSON object,
// anything else a dotenv file.
func (l *Log) Write(path string) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := json.MarshalIndent(l.vars, "", "    ")
		if err != nil {
			return fmt.Errorf("encoding environment: %w", err)
		}
		data = append(b, '\n')
	} else {
		s, err := godotenv.Marshal(l.vars)
		if err != nil {
			return fmt.Errorf("encoding environment: %w", err)
		}
		data = []byte(s + "\n")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing environment file: %w", err)
	}
	return nil
}

// ReadFile loads a file written by Write
func ReadFile(path string) (map[string]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading environment file: %w", err)
		}
		vars := make(map[string]string)
		if err := json.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("parsing environment file: %w", err)
		}
		return vars, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment file: %w", err)
	}
	return vars, nil
}

// pathVars are extended rather than overwritten when sourced
var pathVars = map[string]bool{
	"PATH":            true,
	"LD_LIBRARY_PATH": true,
	"LIBRARY_PATH":    true,
	"CPATH":           true,
	"PYTHONPATH":      true,
}

// Script renders vars as sorted sh export lines
func Script(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := shellEscape(vars[k])
		if pathVars[k] {
			v += ":$" + k
		}
		fmt.Fprintf(&b, "export %s=\"%s\"\n", k, v)
	}
	return b.String()
}

func shellEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return r.Replace(s)
}

func resolvePath(p string) string {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		p = real
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
