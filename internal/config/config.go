// Package config provides configuration management for fleetmap.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with FM_ prefix)
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./config.yaml, ./configs/config.yaml, ~/.fleetmap/config.yaml, /etc/fleetmap/config.yaml)
//  3. Environment variables (FM_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Default client: %s\n", cfg.Clients[0].Host)
//
// # Environment Variables
//
// Environment variables override all other configuration sources.
// Use FM_ prefix and underscores for nested keys:
//   - FM_LOGGING_LEVEL=debug
//   - FM_PASS_ABORT_ON_ERROR=true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for fleetmap.
type Config struct {
	// Clients are the named daemon endpoints a pass may route to.
	Clients []ClientConfig `mapstructure:"clients"`

	// Logging contains logging settings.
	Logging LoggingConfig `mapstructure:"logging"`

	// Pass contains the default reconciliation pass options.
	Pass PassConfig `mapstructure:"pass"`

	// MapsDir is where map configuration documents are discovered.
	MapsDir string `mapstructure:"maps_dir"`
}

// ClientConfig names one daemon endpoint a ContainerAssignment's
// `clients` list may route to; the name "__default__" is implied when a
// single client is configured and no name is given.
type ClientConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `mapstructure:"format"`
}

// PassConfig carries the default values for spec.md §6's "configuration
// options for a pass", set from the config file or FM_PASS_* environment
// variables; no CLI flag overrides them.
type PassConfig struct {
	AbortOnError     bool          `mapstructure:"abort_on_error"`
	RemoveAttached   bool          `mapstructure:"remove_attached"`
	RemoveNetworks   bool          `mapstructure:"remove_networks"`
	PullBeforeCreate bool          `mapstructure:"pull_before_create"`
	StopTimeout      time.Duration `mapstructure:"stop_timeout"`
	// StrictInspect turns an observed container that looks like it
	// belongs to this map but matches no declared object into a fatal
	// InspectInconsistency instead of a logged warning (spec.md §7).
	StrictInspect bool `mapstructure:"strict_inspect"`
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
// A config file that does not exist is not an error: defaults and
// environment variables apply.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FM_ prefix)
//  2. Configuration file
//  3. Default values
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.fleetmap")
		v.AddConfigPath("/etc/fleetmap")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("FM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if len(cfg.Clients) == 1 && cfg.Clients[0].Name == "" {
		cfg.Clients[0].Name = "__default__"
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clients", []map[string]string{
		{"name": "__default__", "host": "unix:///var/run/docker.sock"},
	})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("pass.abort_on_error", false)
	v.SetDefault("pass.remove_attached", false)
	v.SetDefault("pass.remove_networks", false)
	v.SetDefault("pass.pull_before_create", false)
	v.SetDefault("pass.stop_timeout", "10s")
	v.SetDefault("pass.strict_inspect", false)

	v.SetDefault("maps_dir", "./maps")
}

func validate(cfg *Config) error {
	if len(cfg.Clients) == 0 {
		return fmt.Errorf("at least one client must be configured")
	}
	seen := make(map[string]bool, len(cfg.Clients))
	for _, c := range cfg.Clients {
		if c.Host == "" {
			return fmt.Errorf("client %q: host is required", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate client name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func Get() *Config {
	return cfg
}
