// Package plugin provides the plugin architecture for qlint capabilities.
//
// A plugin is a loaded capability package: it identifies itself with an Info
// and contributes extensions (sensors, languages, rule repositories, ...).
// Plugins never touch a container directly. The Installer walks the plugin
// Repository and registers each extension into a scope, keeping the ones a
// Matcher accepts active and recording the rest as declared-only.
//
// Architecture:
//   - Extensions carry a small closed set of Role flags
//   - A Matcher is a flag test over those roles, supplied per scope
//   - ExtensionProviders produce further extensions from the scope they are
//     installed in, either one (ProducesOne) or a batch (ProducesMany)
//   - Lazy extensions are built by the scope on first lookup
package plugin

import (
	"strings"
)

// Plugin defines the interface that all capability packages implement.
type Plugin interface {
	// Info returns identity and compatibility information for this plugin
	Info() Info

	// Extensions returns the extensions contributed directly by this plugin,
	// in installation order
	Extensions() []Extension
}

// Info describes a plugin
type Info struct {
	// Key is the plugin identifier (e.g., "java", "python")
	Key string

	// Name is the display name
	Name string

	// Version is the plugin version
	Version string

	// HostVersion is the required qlint version (semver constraint)
	HostVersion string

	// Description is a human-readable description
	Description string
}

// Extension is a unit of functionality contributed to a run.
type Extension interface {
	// Roles returns the phases and modes this extension is valid for
	Roles() Role
}

// Role is a set of flags describing where an extension applies.
type Role uint8

const (
	// RoleGlobal marks extensions living for the whole process
	RoleGlobal Role = 1 << iota
	// RoleAnalysis marks extensions living for one analysis run
	RoleAnalysis
	// RoleStandalone marks extensions valid without a server binding
	RoleStandalone
	// RoleConnected marks extensions valid for a project bound to a server
	RoleConnected
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleGlobal, "global"},
	{RoleAnalysis, "analysis"},
	{RoleStandalone, "standalone"},
	{RoleConnected, "connected"},
}

// Has reports whether every flag of other is set in r.
func (r Role) Has(other Role) bool {
	return r&other == other
}

func (r Role) String() string {
	if r == 0 {
		return "none"
	}
	var names []string
	for _, rn := range roleNames {
		if r&rn.role != 0 {
			names = append(names, rn.name)
		}
	}
	return strings.Join(names, "|")
}

// Matcher decides whether an extension is active in a scope.
type Matcher interface {
	Accept(ext Extension) bool
}

// RoleMatcher accepts extensions carrying every required role.
type RoleMatcher struct {
	Required Role
}

// MatchRoles returns a Matcher accepting extensions that carry all of required.
func MatchRoles(required Role) RoleMatcher {
	return RoleMatcher{Required: required}
}

// Accept implements Matcher.
func (m RoleMatcher) Accept(ext Extension) bool {
	return ext != nil && ext.Roles().Has(m.Required)
}

func (m RoleMatcher) String() string {
	return m.Required.String()
}
