// Package analysis hosts one analysis run: its configuration, the analysis
// scope populated from the global scope, and the sensors executed in it.
package analysis

import (
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/plugin"
)

// Analysis modes
const (
	ModeConnected  = "connected"
	ModeStandalone = "standalone"
)

// ParseMode maps a configured mode name to the role extensions must carry
// to run in it.
func ParseMode(mode string) (plugin.Role, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeConnected, "":
		return plugin.RoleConnected, nil
	case ModeStandalone:
		return plugin.RoleStandalone, nil
	default:
		return 0, errors.Wrapf(errors.ErrInvalidRequest, "unknown analysis mode %q (expected %s or %s)",
			mode, ModeConnected, ModeStandalone)
	}
}

// Configuration describes one analysis run.
type Configuration struct {
	// ID identifies the run in diagnostics
	ID uuid.UUID

	// Project is the bound project key, empty for an unbound analysis
	Project string

	// BaseDir is the root of the analyzed sources
	BaseDir string

	// Mode is RoleConnected or RoleStandalone
	Mode plugin.Role

	// Languages restricts the enabled languages; empty enables every known one
	Languages []string
}

// NewConfiguration creates a configuration with a fresh run ID.
func NewConfiguration(project, baseDir string, mode plugin.Role, languages ...string) *Configuration {
	return &Configuration{
		ID:        uuid.New(),
		Project:   project,
		BaseDir:   baseDir,
		Mode:      mode,
		Languages: languages,
	}
}

// ProjectKey returns the bound project key.
func (c *Configuration) ProjectKey() string {
	return c.Project
}

// Matcher returns the matcher selecting extensions for this run.
func (c *Configuration) Matcher() plugin.Matcher {
	return plugin.MatchRoles(plugin.RoleAnalysis | c.Mode)
}
