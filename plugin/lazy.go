package plugin

import (
	"github.com/teranos/qlint/container"
)

// LazyExtension is an extension the scope constructs on first lookup. The
// installer registers its Provider rather than the extension value itself.
type LazyExtension interface {
	Extension
	Provider() container.Provider
}

type lazy[T any] struct {
	roles    Role
	provider container.Provider
}

// Lazy contributes an extension of type T built by fn from the scope it is
// installed in. The built value is looked up as T.
func Lazy[T any](roles Role, fn func(c *container.Container) (T, error)) LazyExtension {
	return &lazy[T]{roles: roles, provider: container.Provide(fn)}
}

func (l *lazy[T]) Roles() Role { return l.roles }

func (l *lazy[T]) Provider() container.Provider { return l.provider }
