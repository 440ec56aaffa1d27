package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/qlint/errors"
)

// EnvPrefix prefixes every environment variable read by qlint.
const EnvPrefix = "QLINT"

// ProjectFileName is the per-project configuration file name.
const ProjectFileName = "qlint.toml"

// Locations are the configuration files merged over the defaults. Empty or
// missing files are skipped.
type Locations struct {
	System  string
	User    string
	Project string
}

// DefaultLocations returns the standard system and user files and the
// nearest project file above the working directory.
func DefaultLocations() Locations {
	locs := Locations{System: "/etc/qlint/config.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		locs.User = filepath.Join(home, ".qlint", "config.toml")
	}
	if cwd, err := os.Getwd(); err == nil {
		locs.Project = FindProjectConfig(cwd)
	}
	return locs
}

// Load reads the configuration from the default locations and validates it.
func Load() (*Config, error) {
	return LoadFrom(DefaultLocations())
}

// LoadFrom reads the configuration from locs and validates it.
func LoadFrom(locs Locations) (*Config, error) {
	v, _, err := NewViper(locs)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, over the
// defaults and without environment overrides.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// NewViper builds a Viper instance over the defaults, the files of locs and
// the environment, and reports which file set each key.
func NewViper(locs Locations) (*viper.Viper, map[string]SourceInfo, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)

	SetDefaults(v)

	sources := make(map[string]SourceInfo)
	files := []struct {
		path   string
		source ConfigSource
	}{
		{locs.System, SourceSystem},
		{locs.User, SourceUser},
		{locs.Project, SourceProject},
	}
	for _, f := range files {
		if err := mergeConfigFile(v, f.path, f.source, sources); err != nil {
			return nil, nil, err
		}
	}
	return v, sources, nil
}

// mergeConfigFile merges one file into v. A missing file is skipped; an
// unreadable or malformed one is an error.
func mergeConfigFile(v *viper.Viper, path string, source ConfigSource, sources map[string]SourceInfo) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	fileViper := viper.New()
	fileViper.SetConfigFile(path)
	fileViper.SetConfigType("toml")
	if err := fileViper.ReadInConfig(); err != nil {
		return errors.WithHintf(errors.Wrapf(err, "failed to read config file %s", path),
			"Fix or remove %s", path)
	}

	// MergeConfigMap keeps file values below environment overrides
	if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
		return errors.Wrapf(err, "failed to merge config file %s", path)
	}
	for _, key := range fileViper.AllKeys() {
		sources[key] = SourceInfo{Source: source, Path: path}
	}
	return nil
}

// FindProjectConfig searches for qlint.toml from dir up to the filesystem
// root. It returns "" when there is none.
func FindProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
