// Package config holds the camstream configuration: capture parameters,
// queue capacity and server settings, persisted as YAML the first time the
// tool runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hamlinzheng/rockchip-example/internal/logger"
)

// Config is the application configuration.
type Config struct {
	Device     string `yaml:"device"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FPS        int    `yaml:"fps"`
	QueueSize  int    `yaml:"queue_size"`
	ServerPort int    `yaml:"server_port"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Device:     "/dev/video0",
		Width:      1920,
		Height:     1080,
		FPS:        30,
		QueueSize:  5,
		ServerPort: 8080,
		LogLevel:   "info",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "camstream", "config.yaml"), nil
}

// Load reads the configuration from path, falling back to DefaultPath when
// path is empty. A missing file yields defaults and is written out so the
// user has something to edit.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		logger.WithComponent("config").Info().
			Str("path", path).
			Msg("Config file not found, creating defaults")
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			logger.WithComponent("config").Warn().Err(err).Msg("Failed to write default config")
		}
		return cfg, nil
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	logger.WithComponent("config").Info().Str("path", path).Msg("Config loaded")
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyArgs overrides the config from positional arguments in the order
// device, width, height, fps, queue size. Every argument is optional.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 5 {
		return fmt.Errorf("config: too many arguments (%d), expected at most 5", len(args))
	}
	if len(args) >= 1 {
		c.Device = args[0]
	}
	fields := []struct {
		name string
		dst  *int
	}{
		{"width", &c.Width},
		{"height", &c.Height},
		{"fps", &c.FPS},
		{"queue size", &c.QueueSize},
	}
	for i, f := range fields {
		if len(args) < i+2 {
			break
		}
		v, err := strconv.Atoi(args[i+1])
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", f.name, args[i+1], err)
		}
		*f.dst = v
	}
	return nil
}

// Validate checks every numeric field for positivity.
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("config: device must not be empty")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("config: invalid frame rate %d", c.FPS)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("config: invalid queue size %d", c.QueueSize)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.ServerPort)
	}
	return nil
}
