// Package config loads service configuration from an optional YAML file,
// with environment overrides for container deployments.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the listen address for the HTTP API.
	Addr string `yaml:"addr"`
	// DataDir holds scripts.json and presets.json.
	DataDir string `yaml:"data_dir"`
	// CacheSize caps the compiled-pattern cache.
	CacheSize int `yaml:"cache_size"`
	// Watch reloads the data files when they change on disk.
	Watch bool `yaml:"watch"`
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Macros adds extra {{token}} substitutions available to all scripts.
	Macros map[string]string `yaml:"macros"`
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		DataDir:   "data",
		CacheSize: 1000,
		Watch:     true,
		LogLevel:  "info",
	}
}

// Load reads path over the defaults. A missing file is fine when path is
// empty (no --config given); a named file that cannot be read is an error.
// Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	return cfg, nil
}
