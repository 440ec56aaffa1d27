// Package container provides the hierarchical component registry that hosts
// everything taking part in a bootstrap: core services, plugin extensions and
// the values computed from them.
//
// A Container is one scope. It maps types to either an instance supplied up
// front or a factory that builds the instance on first lookup. Scopes form a
// tree: a lookup searches the current scope and then its ancestors, never its
// children. An instance is built at most once per scope that registered it.
//
// Factories declare their dependencies by calling back into the scope they
// were registered in:
//
//	c.Add(container.Provide(func(c *container.Container) (*storage.ActiveRulesProvider, error) {
//	    reader, err := container.Get[storage.Reader](c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return storage.NewActiveRulesProvider(reader, log), nil
//	}))
//
// A Container is not safe for concurrent use; callers serialize access to a
// scope.
package container

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
)

// Hooks are the scope-specific population and execution phases run by Start.
type Hooks struct {
	// BeforeStart populates the scope with core components and extensions
	BeforeStart func(c *Container) error

	// AfterStart runs the phases that need the fully populated scope
	AfterStart func(c *Container) error
}

// Stopper is implemented by built components that hold resources. Stop is
// called on them, in reverse construction order, when their scope stops.
type Stopper interface {
	Stop() error
}

// Container is one scope of the component registry.
type Container struct {
	name   string
	parent *Container
	hooks  Hooks
	base   *zap.SugaredLogger
	log    *zap.SugaredLogger

	entries  []*entry
	declared []*entry

	building map[*entry]bool
	chain    []*entry
	built    []*entry

	state State
}

// New creates a root scope.
func New(name string, log *zap.SugaredLogger, hooks Hooks) *Container {
	base := logger.OrNop(log)
	return &Container{
		name:     name,
		hooks:    hooks,
		base:     base,
		log:      base.With(logger.FieldContainer, name),
		building: make(map[*entry]bool),
	}
}

// NewChild creates a scope whose lookups fall back to c.
func (c *Container) NewChild(name string, hooks Hooks) *Container {
	child := New(name, c.base, hooks)
	child.parent = c
	return child
}

// Name returns the scope name given at construction.
func (c *Container) Name() string { return c.name }

// Parent returns the enclosing scope, or nil for a root scope.
func (c *Container) Parent() *Container { return c.parent }

// State returns the current lifecycle state.
func (c *Container) State() State { return c.state }

// Logger returns the scope's diagnostics sink.
func (c *Container) Logger() *zap.SugaredLogger { return c.log }

// Add registers components into this scope. Each item is either a Provider
// (built lazily on first lookup) or an instance, which is held as-is and keyed
// by its dynamic type. Nil items are ignored.
func (c *Container) Add(items ...any) *Container {
	for _, item := range items {
		if e := newEntry(item, "", false); e != nil {
			c.entries = append(c.entries, e)
		}
	}
	return c
}

// AddExtension registers an active extension, tagging it with the key of the
// plugin that contributed it. An empty owner marks an internally supplied
// extension.
func (c *Container) AddExtension(owner string, extension any) *Container {
	if e := newEntry(extension, owner, true); e != nil {
		c.entries = append(c.entries, e)
		c.log.Debugw("Added extension", logger.FieldType, e.typ.String(), logger.FieldOwner, owner)
	}
	return c
}

// DeclareExtension records an extension that is known but inactive. It is
// listed by Extensions but never returned by Get or All.
func (c *Container) DeclareExtension(owner string, extension any) *Container {
	if e := newEntry(extension, owner, true); e != nil {
		c.declared = append(c.declared, e)
		c.log.Debugw("Declared extension", logger.FieldType, e.typ.String(), logger.FieldOwner, owner)
	}
	return c
}

// Extensions lists every extension recorded in this scope (not its
// ancestors), active ones first, each in registration order.
func (c *Container) Extensions() []ExtensionInfo {
	var out []ExtensionInfo
	for _, e := range c.entries {
		if e.extension {
			out = append(out, ExtensionInfo{Owner: e.owner, Type: e.typ, Active: true})
		}
	}
	for _, e := range c.declared {
		out = append(out, ExtensionInfo{Owner: e.owner, Type: e.typ, Active: false})
	}
	return out
}

// Get resolves the unique component assignable to T visible from c,
// building and caching it if needed. The current scope is searched first,
// then each ancestor. Within a scope an exact type match wins over other
// assignable registrations; more than one candidate otherwise is
// ErrAmbiguousComponent.
func Get[T any](c *Container) (T, error) {
	var zero T
	want := reflect.TypeFor[T]()

	v, err := c.lookup(want)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

// MustGet is like Get but panics on failure. Use it only in tests and in
// wiring code where a failure is a programming error.
func MustGet[T any](c *Container) T {
	v, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Optional is like Get but returns the zero value, without error, when no
// component of type T is visible from c.
func Optional[T any](c *Container) (T, error) {
	v, err := Get[T](c)
	if errors.Is(err, errors.ErrComponentNotFound) {
		var zero T
		return zero, nil
	}
	return v, err
}

// All resolves every component assignable to T visible from c: registrations
// of the current scope first, then those of each ancestor. A pointer
// reachable through several registrations is returned once; value instances
// are returned once per registration, even when equal.
func All[T any](c *Container) ([]T, error) {
	return collect[T](c, true)
}

// Local is like All but only considers registrations of c itself.
func Local[T any](c *Container) ([]T, error) {
	return collect[T](c, false)
}

// identity distinguishes pointers to zero-size values of different types,
// which may share an address.
type identity struct {
	typ  reflect.Type
	addr uintptr
}

func collect[T any](c *Container, ancestors bool) ([]T, error) {
	want := reflect.TypeFor[T]()

	var out []T
	seen := make(map[identity]bool)
	for n := c; n != nil; n = n.parent {
		if n.state == StateStopped {
			return nil, errors.Wrapf(errors.ErrContainerStopped, "lookup of %s in %q", want, n.name)
		}
		for _, e := range n.entries {
			if !e.typ.AssignableTo(want) {
				continue
			}
			v, err := n.resolve(e)
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			// only pointers carry identity; value instances are never merged
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
				id := identity{typ: rv.Type(), addr: rv.Pointer()}
				if seen[id] {
					continue
				}
				seen[id] = true
			}
			out = append(out, v.(T))
		}
		if !ancestors {
			break
		}
	}
	return out, nil
}

func (c *Container) lookup(want reflect.Type) (any, error) {
	for n := c; n != nil; n = n.parent {
		if n.state == StateStopped {
			return nil, errors.Wrapf(errors.ErrContainerStopped, "lookup of %s in %q", want, n.name)
		}

		var exact, assignable []*entry
		for _, e := range n.entries {
			switch {
			case e.typ == want:
				exact = append(exact, e)
			case e.typ.AssignableTo(want):
				assignable = append(assignable, e)
			}
		}

		candidates := exact
		if len(candidates) == 0 {
			candidates = assignable
		}

		switch len(candidates) {
		case 0:
			continue
		case 1:
			return n.resolve(candidates[0])
		default:
			return nil, errors.Wrapf(errors.ErrAmbiguousComponent,
				"%d components in %q match %s: %s", len(candidates), n.name, want, typeNames(candidates))
		}
	}

	return nil, errors.Wrapf(errors.ErrComponentNotFound, "no component of type %s visible from %q", want, c.name)
}

// resolve returns the instance for e, building it through this scope if it
// has not been built yet.
func (c *Container) resolve(e *entry) (any, error) {
	if e.built {
		return e.instance, nil
	}

	if c.building[e] {
		path := make([]*entry, 0, len(c.chain)+1)
		path = append(path, c.chain...)
		path = append(path, e)
		return nil, errors.Wrapf(errors.ErrCircularDependency, "%s", chainString(path))
	}

	c.building[e] = true
	c.chain = append(c.chain, e)
	defer func() {
		delete(c.building, e)
		c.chain = c.chain[:len(c.chain)-1]
	}()

	v, err := e.provider.build(c)
	if err != nil {
		if errors.IsResolutionError(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to build %s", e.typ)
	}

	e.instance = v
	e.built = true
	c.built = append(c.built, e)
	return v, nil
}

// Start runs the BeforeStart hook and then the AfterStart hook. Components
// are built lazily as the hooks look them up. A failing hook aborts startup:
// its error is returned unchanged and the scope is left in StateFailed.
func (c *Container) Start() error {
	if c.state != StateCreated {
		return errors.Newf("container %q cannot start from state %s", c.name, c.state)
	}
	c.state = StateStarting
	c.log.Debugw("Starting container")

	if c.hooks.BeforeStart != nil {
		if err := c.hooks.BeforeStart(c); err != nil {
			c.state = StateFailed
			return err
		}
	}
	if c.hooks.AfterStart != nil {
		if err := c.hooks.AfterStart(c); err != nil {
			c.state = StateFailed
			return err
		}
	}

	c.state = StateStarted
	c.log.Debugw("Container started", logger.FieldCount, len(c.built))
	return nil
}

// Stop releases this scope only. Components implementing Stopper are stopped:
// the ones built by the scope in reverse construction order, then the
// instances added as-is in reverse registration order. Every reference is
// dropped. Stopping an already stopped scope is a no-op.
func (c *Container) Stop() error {
	if c.state == StateStopped {
		return nil
	}

	var errs error
	stop := func(e *entry) {
		if s, ok := e.instance.(Stopper); ok {
			if err := s.Stop(); err != nil {
				errs = errors.CombineErrors(errs, errors.Wrapf(err, "failed to stop %s", e.typ))
			}
		}
		e.instance = nil
		e.built = false
	}

	for i := len(c.built) - 1; i >= 0; i-- {
		stop(c.built[i])
	}
	for i := len(c.entries) - 1; i >= 0; i-- {
		if e := c.entries[i]; e.provider == nil && e.built {
			stop(e)
		}
	}

	c.entries = nil
	c.declared = nil
	c.built = nil
	c.state = StateStopped
	c.log.Debugw("Container stopped")
	return errs
}

func typeNames(entries []*entry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.typ.String()
	}
	return strings.Join(names, ", ")
}

func chainString(entries []*entry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.typ.String()
	}
	return strings.Join(names, " -> ")
}
