package am

import (
	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultTimeoutSeconds = 30
	DefaultStoragePath    = "~/.qlint/storage.db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.url", "")
	v.SetDefault("server.token", "")
	v.SetDefault("server.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("server.requests_per_second", 0) // unlimited
	v.SetDefault("server.block_private_ip", false)

	// Storage defaults
	v.SetDefault("storage.path", DefaultStoragePath)

	// Analysis defaults
	v.SetDefault("analysis.project_key", "")
	v.SetDefault("analysis.languages", []string{})
	v.SetDefault("analysis.mode", ModeConnected)

	// Log defaults
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.token", "QLINT_SERVER_TOKEN")
}

// Default returns the configuration made of the defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}
