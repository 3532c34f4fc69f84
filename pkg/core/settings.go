// pkg/core/settings.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings holds buildconf's own configuration, not xmipp.conf
type Settings struct {
	Ask            bool          `yaml:"ask"`
	ConfigFile     string        `yaml:"config_file" validate:"required"`
	TemplateFile   string        `yaml:"template_file" validate:"required"`
	EnvFile        string        `yaml:"env_file" validate:"required"`
	WorkDir        string        `yaml:"work_dir"`
	Installer      string        `yaml:"installer" validate:"oneof=auto conda apt dnf pacman zypper apk brew nix dpkg none"`
	InstallPath    string        `yaml:"install_path"`
	CacheURL       string        `yaml:"cache_url" validate:"omitempty,url"`
	DebMirror      string        `yaml:"deb_mirror" validate:"omitempty,url"`
	RegistryDir    string        `yaml:"registry_dir"`
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"min=0"`
	IncludeDirs    []string      `yaml:"include_dirs"`
	Python         string        `yaml:"python" validate:"required"`
	LogLevel       string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Debug          bool          `yaml:"debug"`
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		ConfigFile:     DefaultConfigFile,
		TemplateFile:   DefaultTemplateFile,
		EnvFile:        DefaultEnvFile,
		Installer:      "auto",
		InstallPath:    getDefaultInstallPath(),
		CommandTimeout: 5 * time.Minute,
		IncludeDirs:    []string{"../"},
		Python:         "python3",
	}
}

// DefaultSettingsPath is $HOME/.config/buildconf/config.yaml
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "buildconf", "config.yaml"), nil
}

// LoadSettings loads settings from file. A missing file yields defaults.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			return DefaultSettings(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSettings writes settings as YAML
func SaveSettings(s *Settings, path string) error {
	if path == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func getDefaultInstallPath() string {
	if path := os.Getenv("BUILDCONF_INSTALL_PATH"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/usr/local"
	}

	return filepath.Join(home, ".buildconf")
}
