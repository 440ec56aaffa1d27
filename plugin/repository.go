package plugin

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/qlint/errors"
)

// Repository holds the loaded plugins
type Repository struct {
	mu          sync.RWMutex
	plugins     map[string]Plugin
	hostVersion string // qlint version
}

// NewRepository creates a new plugin repository
func NewRepository(hostVersion string) *Repository {
	return &Repository{
		plugins:     make(map[string]Plugin),
		hostVersion: hostVersion,
	}
}

// Register registers a plugin
// Returns error if the plugin key conflicts or the host version is incompatible
func (r *Repository) Register(plugin Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := plugin.Info()
	if info.Key == "" {
		return errors.Wrap(errors.ErrInvalidRequest, "plugin key is empty")
	}

	// Check for key conflicts
	if _, exists := r.plugins[info.Key]; exists {
		return errors.Newf("plugin already registered: %s", info.Key)
	}

	// Validate version compatibility
	if err := r.validateVersion(info); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", info.Key)
	}

	r.plugins[info.Key] = plugin
	return nil
}

// Get retrieves a plugin by key
func (r *Repository) Get(key string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.plugins[key]
	return plugin, ok
}

// Keys returns all registered plugin keys in sorted order
func (r *Repository) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.plugins))
	for key := range r.plugins {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Plugins returns all registered plugins sorted by key
func (r *Repository) Plugins() []Plugin {
	keys := r.Keys()

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(keys))
	for _, key := range keys {
		if p, ok := r.plugins[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Infos returns the Info of every registered plugin sorted by key
func (r *Repository) Infos() []Info {
	plugins := r.Plugins()
	infos := make([]Info, len(plugins))
	for i, p := range plugins {
		infos[i] = p.Info()
	}
	return infos
}

// validateVersion checks if the plugin is compatible with the qlint version
func (r *Repository) validateVersion(info Info) error {
	if info.HostVersion == "" {
		// No version constraint specified
		return nil
	}

	hostVer, err := semver.NewVersion(r.hostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid qlint version %s", r.hostVersion)
	}

	constraint, err := semver.NewConstraint(info.HostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", info.HostVersion)
	}

	if !constraint.Check(hostVer) {
		return errors.Newf("plugin requires qlint %s, but running %s", info.HostVersion, r.hostVersion)
	}

	return nil
}
