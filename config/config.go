// Package config loads the YAML run configuration: diff-ignore patterns
// and the palettes used by the visual patch.
package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Color is an RGB triple in the 0..1 range.
type Color [3]float64

// Palette assigns a color to each change kind.
type Palette struct {
	Add  Color `yaml:"add"`
	Del  Color `yaml:"del"`
	Edit Color `yaml:"edit"`
}

// Default palettes. Primary colors a plain diff; Secondary marks the second
// diff of a merge and Concurrent the nodes both diffs touched.
var (
	DefaultPalette    = Palette{Add: Color{0.01, 0.4, 0.03}, Del: Color{0.44, 0.06, 0.05}, Edit: Color{0.57, 0.43, 0.85}}
	SecondaryPalette  = Palette{Add: Color{1, 0.88, 0.39}, Del: Color{0.86, 0.45, 0.21}, Edit: Color{0.53, 0.82, 0.97}}
	ConcurrentPalette = Palette{Add: Color{0.8, 1, 0}, Del: Color{1, 0, 0.8}, Edit: Color{0, 0, 1}}
)

// DefaultIgnore lists the node-value properties stripped from diffs by
// default: editor layout noise that changes on every open.
var DefaultIgnore = []string{"v.x", "v.y", "v.width", "v.height", "v.width_hidden"}

// Config is the full run configuration.
type Config struct {
	Ignore     []string `yaml:"ignore"`
	Palette    Palette  `yaml:"palette"`
	Secondary  Palette  `yaml:"secondary"`
	Concurrent Palette  `yaml:"concurrent"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Ignore:     append([]string(nil), DefaultIgnore...),
		Palette:    DefaultPalette,
		Secondary:  SecondaryPalette,
		Concurrent: ConcurrentPalette,
	}
}

// Load reads a configuration file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the file when it exists and falls back to the
// defaults when it does not.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return nil
}
