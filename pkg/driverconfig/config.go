// Package driverconfig layers the front-end's runtime knobs: built-in
// defaults, an optional YAML config file, environment variables, and
// finally command-line flags — each tier overriding the last. None of
// this is part of the core; the core's Space/Time quotas and image
// path are plain constructor arguments.
package driverconfig

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the front end's resolved settings.
type Config struct {
	SpaceQuota int    `yaml:"space_quota"`
	TimeQuota  int    `yaml:"time_quota"`
	Image      string `yaml:"image"`
	LogLevel   string `yaml:"log_level"`
}

// Defaults returns the built-in starting point, before any config
// file, environment variable, or flag is applied.
func Defaults() Config {
	return Config{
		SpaceQuota: 1 << 16,
		TimeQuota:  1 << 20,
		Image:      "",
		LogLevel:   "info",
	}
}

// LoadFile reads a YAML config file and overlays its fields onto cfg.
// A missing file is not an error — it leaves cfg untouched — but a
// malformed one is.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "driverconfig: reading %q", path)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, errors.Wrapf(err, "driverconfig: parsing %q", path)
	}
	return overlay(cfg, file), nil
}

// overlay returns base with every non-zero field of over applied on
// top of it.
func overlay(base, over Config) Config {
	if over.SpaceQuota != 0 {
		base.SpaceQuota = over.SpaceQuota
	}
	if over.TimeQuota != 0 {
		base.TimeQuota = over.TimeQuota
	}
	if over.Image != "" {
		base.Image = over.Image
	}
	if over.LogLevel != "" {
		base.LogLevel = over.LogLevel
	}
	return base
}

// Env variable names read by LoadEnv.
const (
	EnvSpaceQuota = "REDEX_SPACE_QUOTA"
	EnvTimeQuota  = "REDEX_TIME_QUOTA"
	EnvImage      = "REDEX_IMAGE"
	EnvLogLevel   = "REDEX_LOG_LEVEL"
)

// LoadEnv overlays cfg with any of the REDEX_* environment variables
// that are set.
func LoadEnv(cfg Config) (Config, error) {
	if v, ok := os.LookupEnv(EnvSpaceQuota); ok {
		n, err := parseInt(v)
		if err != nil {
			return cfg, errors.Wrapf(err, "driverconfig: %s", EnvSpaceQuota)
		}
		cfg.SpaceQuota = n
	}
	if v, ok := os.LookupEnv(EnvTimeQuota); ok {
		n, err := parseInt(v)
		if err != nil {
			return cfg, errors.Wrapf(err, "driverconfig: %s", EnvTimeQuota)
		}
		cfg.TimeQuota = n
	}
	if v, ok := os.LookupEnv(EnvImage); ok {
		cfg.Image = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	return cfg, nil
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
