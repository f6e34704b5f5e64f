package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration (excluding company branding,
// which lives in the database).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Paths     PathsConfig     `yaml:"paths"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Limits    LimitsConfig    `yaml:"limits"`
}

// ServerConfig holds network listener settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// PathsConfig holds filesystem paths for data.
type PathsConfig struct {
	Data     string `yaml:"data"`
	Database string `yaml:"database"`
}

// SimulatorConfig drives the presence simulator. Intervals are in
// seconds; probabilities are per tick (message) or per user per tick
// (status churn).
type SimulatorConfig struct {
	MessageIntervalSeconds int     `yaml:"message_interval_seconds"`
	MessageProbability     float64 `yaml:"message_probability"`
	StatusIntervalSeconds  int     `yaml:"status_interval_seconds"`
	StatusProbability      float64 `yaml:"status_probability"`
}

// LimitsConfig holds input boundary checks.
type LimitsConfig struct {
	MaxFileBytes  int64 `yaml:"max_file_bytes"`
	LogoMinWidth  int   `yaml:"logo_min_width"`
	LogoMinHeight int   `yaml:"logo_min_height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8420",
		},
		Paths: PathsConfig{
			Data:     "./data",
			Database: "./data/teamchat.db",
		},
		Simulator: SimulatorConfig{
			MessageIntervalSeconds: 20,
			MessageProbability:     0.02,
			StatusIntervalSeconds:  60,
			StatusProbability:      0.1,
		},
		Limits: LimitsConfig{
			MaxFileBytes:  10 * 1024 * 1024,
			LogoMinWidth:  170,
			LogoMinHeight: 66,
		},
	}
}

// Load reads and parses a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
