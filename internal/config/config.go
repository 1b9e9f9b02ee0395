package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for knox. Pointer
// fields distinguish "unset" from zero values so precedence can fall through.
type FileConfig struct {
	MaxFileSizeMB   *int64   `yaml:"max_file_size_mb"`
	MaxDepth        *int     `yaml:"max_depth"`
	Parallel        *bool    `yaml:"parallel"`
	Threads         *int     `yaml:"threads"`
	Extensions      []string `yaml:"extensions,omitempty"`
	Include         *string  `yaml:"include"`
	Exclude         *string  `yaml:"exclude"`
	DefaultExcludes *bool    `yaml:"default_excludes"`
	Rules           []string `yaml:"rules,omitempty"`
	FailOn          *string  `yaml:"fail_on"`
	NoColor         *bool    `yaml:"no_color"`
	LogLevel        *string  `yaml:"log_level"`
	Baseline        *string  `yaml:"baseline"`
}

// LocalNames lists repo-local config file names in search order.
var LocalNames = []string{".knox.yml", ".knox.yaml", "knox.yml", "knox.yaml"}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root. When
// root is a file, its directory is searched.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	for _, name := range LocalNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns the location of the global config file, or "" when no
// config directory can be determined.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "knox", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}
