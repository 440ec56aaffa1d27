package container

import "reflect"

// Provider builds a component lazily. Create one with Provide.
type Provider interface {
	// Type is the type the provider is registered and looked up under.
	Type() reflect.Type

	build(c *Container) (any, error)
}

type provider[T any] struct {
	fn func(c *Container) (T, error)
}

// Provide wraps a factory into a Provider registered under T. The factory
// receives the scope it was registered in and resolves its own dependencies
// from it; whatever it resolves is built (and cached) before it returns.
func Provide[T any](fn func(c *Container) (T, error)) Provider {
	return provider[T]{fn: fn}
}

func (p provider[T]) Type() reflect.Type { return reflect.TypeFor[T]() }

func (p provider[T]) build(c *Container) (any, error) {
	v, err := p.fn(c)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ExtensionInfo describes an extension recorded in a scope.
type ExtensionInfo struct {
	// Owner is the contributing plugin key, empty for internal extensions
	Owner string
	// Type is the registered type of the extension
	Type reflect.Type
	// Active is false for declared-only extensions
	Active bool
}

type entry struct {
	typ       reflect.Type
	owner     string
	extension bool

	provider Provider
	instance any
	built    bool
}

func newEntry(item any, owner string, extension bool) *entry {
	if item == nil {
		return nil
	}
	if p, ok := item.(Provider); ok {
		return &entry{typ: p.Type(), owner: owner, extension: extension, provider: p}
	}
	return &entry{
		typ:       reflect.TypeOf(item),
		owner:     owner,
		extension: extension,
		instance:  item,
		built:     true,
	}
}
