// Package am loads the qlint configuration.
//
// Values are merged from, lowest precedence first: built-in defaults,
// /etc/qlint/config.toml, ~/.qlint/config.toml, the nearest qlint.toml found
// walking up from the working directory, and QLINT_* environment variables.
package am

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the qlint configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server" toml:"server" yaml:"server" json:"server"`
	Storage  StorageConfig  `mapstructure:"storage" toml:"storage" yaml:"storage" json:"storage"`
	Analysis AnalysisConfig `mapstructure:"analysis" toml:"analysis" yaml:"analysis" json:"analysis"`
	Log      LogConfig      `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// ServerConfig configures the connection to the analysis server
type ServerConfig struct {
	// URL of the server; empty skips the compatibility check
	URL string `mapstructure:"url" toml:"url" yaml:"url" json:"url"`
	// Token authenticates requests; prefer QLINT_SERVER_TOKEN
	Token string `mapstructure:"token" toml:"token,omitempty" yaml:"token,omitempty" json:"token,omitempty"`
	// TimeoutSeconds bounds each request (default: 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	// RequestsPerSecond paces requests, 0 = unlimited
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
	// BlockPrivateIP refuses loopback and private addresses
	BlockPrivateIP bool `mapstructure:"block_private_ip" toml:"block_private_ip" yaml:"block_private_ip" json:"block_private_ip"`
}

// StorageConfig configures the local rule and profile storage
type StorageConfig struct {
	// Path of the sqlite file, "~" expanded
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

// AnalysisConfig configures analysis runs
type AnalysisConfig struct {
	// ProjectKey binds analyses to a project; empty uses default profiles
	ProjectKey string `mapstructure:"project_key" toml:"project_key" yaml:"project_key" json:"project_key"`
	// Languages enabled for analyses; empty enables every known one
	Languages []string `mapstructure:"languages" toml:"languages" yaml:"languages" json:"languages"`
	// Mode is connected or standalone
	Mode string `mapstructure:"mode" toml:"mode" yaml:"mode" json:"mode"`
}

// LogConfig configures diagnostics output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
}

// Analysis modes
const (
	ModeConnected  = "connected"
	ModeStandalone = "standalone"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Timeout returns the per-request server timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// StoragePath returns the storage path with a leading "~" expanded.
func (c *Config) StoragePath() string {
	return expandHome(c.Storage.Path)
}

// Connected reports whether analyses run bound to a server.
func (c *Config) Connected() bool {
	return strings.EqualFold(c.Analysis.Mode, ModeConnected)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
