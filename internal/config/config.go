// Package config handles flockd configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flockwave/flockd/internal/flog"
	"gopkg.in/yaml.v3"
)

// searchPathsFunc is swapped out in tests to avoid matching real
// config files on developer/deploy machines.
var searchPathsFunc = DefaultSearchPaths

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/flockd/config.yaml, /config/config.yaml,
// /etc/flockd/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "flockd", "config.yaml"))
	}

	paths = append(paths, "/config/config.yaml") // Container convention
	paths = append(paths, "/etc/flockd/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	paths := searchPathsFunc()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", paths)
}

// Config holds all flockd configuration.
type Config struct {
	Listen      ListenConfig                `yaml:"listen"`
	ServerToken string                      `yaml:"server_token"`
	Connections []ConnectionConfig          `yaml:"connections"`
	Extensions  map[string]ExtensionConfig  `yaml:"extensions"`
	LogLevel    string                      `yaml:"log_level"`
}

// ListenConfig defines the WebSocket/TCP accept settings.
type ListenConfig struct {
	Address    string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port       int    `yaml:"port"`    // WebSocket port (default: 5000)
	TCPPort    int    `yaml:"tcp_port"`
	EnableSSDP bool   `yaml:"enable_ssdp"`
}

// ConnectionConfig describes one connection to stand up at startup,
// mirroring spec.md §4's Connection data model fields that are
// meaningful before the connection itself exists: what kind of
// conn.Connection to build and what role it plays.
type ConnectionConfig struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"`    // e.g. "mqtt"
	Purpose string `yaml:"purpose"` // e.g. "uav", "rtk"

	// Transport-specific fields, passed through to the connection's
	// constructor. Only the fields relevant to Kind are read.
	Address  string `yaml:"address"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// ExtensionConfig configures one named extension, serving spec.md §6's
// EXTENSIONS map contract. Options seeds the extension manager's
// configuration slot for the extension; EXT-CFG/EXT-SETCFG read and
// replace that slot, not this struct.
type ExtensionConfig struct {
	// Enabled defaults to true (a configured-but-absent entry loads);
	// an explicit false keeps LoadConfiguredExtensions from loading it.
	Enabled *bool `yaml:"enabled"`
	// Options is passed through to the extension manager's Register/
	// SetConfiguration call unexamined: flockd itself never interprets
	// extension options.
	Options map[string]any `yaml:"options"`
}

// IsEnabled reports whether the extension should load, defaulting to
// true when Enabled is unset.
func (e ExtensionConfig) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates
// the result. After Load returns successfully, all fields are usable
// without additional nil/empty checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${HOME}, ${MQTT_PASSWORD}).
	// This is a convenience for container deployments; the recommended
	// approach is to put values directly in the config file.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
// Called automatically by Load. After this, callers can read any field
// without checking for empty strings or zero values.
func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 5000
	}
	if c.Listen.TCPPort == 0 {
		c.Listen.TCPPort = 5001
	}
	if c.ServerToken == "" {
		c.ServerToken = "flockd/1.0 UPnP/1.1"
	}
	if c.Extensions == nil {
		c.Extensions = make(map[string]ExtensionConfig)
	}
}

// Validate checks that the configuration is internally consistent.
// It runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range (1-65535)", c.Listen.Port)
	}
	if c.Listen.TCPPort < 0 || c.Listen.TCPPort > 65535 {
		return fmt.Errorf("listen.tcp_port %d out of range (0-65535)", c.Listen.TCPPort)
	}
	if c.LogLevel != "" {
		if _, err := flog.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(c.Connections))
	for _, cc := range c.Connections {
		if cc.ID == "" {
			return fmt.Errorf("connections: entry missing id")
		}
		if seen[cc.ID] {
			return fmt.Errorf("connections: duplicate id %q", cc.ID)
		}
		seen[cc.ID] = true
		if cc.Kind == "" {
			return fmt.Errorf("connections[%s]: missing kind", cc.ID)
		}
	}
	return nil
}

// Default returns a default configuration suitable for local
// development: WebSocket and TCP transports on their default ports,
// SSDP discovery on, no pre-configured connections or extensions.
func Default() *Config {
	cfg := &Config{Listen: ListenConfig{EnableSSDP: true}}
	cfg.applyDefaults()
	return cfg
}
