// pkg/core/persist.go
package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

func init() {
	// xmipp.conf is read by SCons as plain KEY=VALUE lines
	ini.PrettyFormat = false
	ini.PrettyEqual = false
	ini.PrettySection = false
}

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	KeyValueDelimiters:  "=",
}

// ResolveConfigPath maps a directory to the config file inside it, or
// to the template when the directory has no config yet
func ResolveConfigPath(path, configName, templateName string) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	candidate := filepath.Join(path, configName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return filepath.Join(path, templateName)
}

// ReadFile parses an INI file and returns the BUILD section. found is
// false when the file does not exist.
func ReadFile(path string) (values map[string]string, found bool, err error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}

	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, true, Fatal(ExitConfig, fmt.Errorf("%w: %v\nPlease fix the configuration file %s.", ErrConfigCorrupt, err, path))
	}

	sec, err := f.GetSection(Section)
	if err != nil {
		return nil, true, Fatal(ExitConfig, fmt.Errorf("%w: cannot find section %s in %s", ErrMissingSection, Section, path))
	}

	return sec.KeysHash(), true, nil
}

// Encode renders values as a single [BUILD] section with sorted keys
func Encode(c *Config) ([]byte, error) {
	f := ini.Empty(loadOptions)
	sec, err := f.NewSection(Section)
	if err != nil {
		return nil, fmt.Errorf("creating section: %w", err)
	}

	m := c.Map()
	for _, k := range c.Keys() {
		if _, err := sec.NewKey(k, plainValue(m[k])); err != nil {
			return nil, fmt.Errorf("adding key %s: %w", k, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// plainValue keeps a value on one unquoted KEY=VALUE line. go-ini quotes
// values with edge blanks, which SCons would read literally.
func plainValue(v string) string {
	v = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v)
	return strings.TrimSpace(v)
}

// WriteFile overwrites path with the encoded config
func WriteFile(c *Config, path string) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
