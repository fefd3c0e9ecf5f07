// Package config loads settings for the expiringcache command.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shammianand/expiringcache"
)

// Entry is a key/value pair the demo command writes into the cache.
type Entry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Config holds the command's settings.
type Config struct {
	TTL      time.Duration `yaml:"ttl"`
	LogLevel string        `yaml:"log_level"`
	Entries  []Entry       `yaml:"entries"`
}

// ValidationError reports a configuration field with an unusable value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		TTL:      5 * time.Second,
		LogLevel: "info",
		Entries:  []Entry{{Key: "a", Value: "1"}},
	}
}

// Load reads a YAML file and merges it over Default. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	merge(cfg, &file)
	return cfg, nil
}

func merge(dst, src *Config) {
	if src.TTL != 0 {
		dst.TTL = src.TTL
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if len(src.Entries) > 0 {
		dst.Entries = src.Entries
	}
}

// Validate rejects a non-positive TTL and unknown log levels.
func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return &ValidationError{Field: "ttl", Value: c.TTL, Message: "must be positive"}
	}
	if !expiringcache.ValidLogLevel(c.LogLevel) {
		return &ValidationError{Field: "log_level", Value: c.LogLevel, Message: "must be one of: debug, info, warn, error"}
	}
	for i, e := range c.Entries {
		if e.Key == "" {
			return &ValidationError{Field: fmt.Sprintf("entries[%d].key", i), Value: `""`, Message: "must not be empty"}
		}
	}
	return nil
}
