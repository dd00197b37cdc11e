// Package settings manages persistent user defaults for the vpsim CLI,
// grounded on the teacher's pkg/settings (same load/save/default-path shape,
// YAML in place of JSON per the domain stack's config-format library).
package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent CLI defaults so repeat launches don't need
// every flag typed out.
type Settings struct {
	// IncludeDirs overrides the default module search path (--include).
	IncludeDirs []string `yaml:"include_dirs,omitempty"`

	// BuildMode is "release" or "debug" (--debug-mode).
	BuildMode string `yaml:"build_mode,omitempty"`

	// LastConfig is the topology file of the last successful run. Commands
	// still require the topology argument; none falls back to this value.
	LastConfig string `yaml:"last_config,omitempty"`

	// RedisAddr, when set, backs the control inbox with Redis instead of
	// an in-process channel (--control-redis).
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

// DefaultSettingsPath returns ~/.vpsim/settings.yaml, falling back to a
// temp path if the home directory can't be resolved.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/vpsim_settings.yaml"
	}
	return filepath.Join(home, ".vpsim", "settings.yaml")
}

// Load reads settings from the default location. A missing file yields
// an empty Settings rather than an error.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path, creating its parent directory.
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
