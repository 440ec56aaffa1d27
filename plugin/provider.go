package plugin

import (
	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
)

// Shape tells the installer how many extensions a provider produces.
type Shape int

const (
	// ProducesOne providers return a single extension
	ProducesOne Shape = iota
	// ProducesMany providers return an ordered batch of extensions
	ProducesMany
)

func (s Shape) String() string {
	switch s {
	case ProducesOne:
		return "one"
	case ProducesMany:
		return "many"
	default:
		return "unknown"
	}
}

// ExtensionProvider is an extension that produces further extensions once the
// scope it was installed in is populated. Providers are resolved from the
// scope like any other component, so they can depend on what was added
// before them.
type ExtensionProvider struct {
	name  string
	roles Role
	shape Shape
	one   func(c *container.Container) (Extension, error)
	many  func(c *container.Container) ([]Extension, error)
}

// ProvideOne creates a provider producing a single extension.
func ProvideOne(name string, roles Role, fn func(c *container.Container) (Extension, error)) *ExtensionProvider {
	return &ExtensionProvider{name: name, roles: roles, shape: ProducesOne, one: fn}
}

// ProvideMany creates a provider producing an ordered batch of extensions.
func ProvideMany(name string, roles Role, fn func(c *container.Container) ([]Extension, error)) *ExtensionProvider {
	return &ExtensionProvider{name: name, roles: roles, shape: ProducesMany, many: fn}
}

// Name identifies the provider in diagnostics.
func (p *ExtensionProvider) Name() string { return p.name }

// Roles implements Extension.
func (p *ExtensionProvider) Roles() Role { return p.roles }

// Shape returns whether the provider produces one extension or many.
func (p *ExtensionProvider) Shape() Shape { return p.shape }

func (p *ExtensionProvider) provide(c *container.Container) ([]Extension, error) {
	switch p.shape {
	case ProducesOne:
		ext, err := p.one(c)
		if err != nil {
			return nil, err
		}
		if ext == nil {
			return nil, nil
		}
		return []Extension{ext}, nil
	case ProducesMany:
		return p.many(c)
	default:
		return nil, errors.AssertionFailedf("extension provider %q has unknown shape %d", p.name, p.shape)
	}
}
