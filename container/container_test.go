package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/qlint/errors"
)

// =============================================================================
// Test components
// =============================================================================

type greeter interface {
	Greet() string
}

type english struct{ name string }

func (e *english) Greet() string { return "hello " + e.name }

type french struct{}

func (f *french) Greet() string { return "bonjour" }

type settings struct{ project string }

type service struct {
	settings *settings
	greeter  greeter
}

type stoppable struct {
	name    string
	stopped *[]string
	err     error
}

func (s *stoppable) Stop() error {
	*s.stopped = append(*s.stopped, s.name)
	return s.err
}

type chicken struct{}
type egg struct{}

// =============================================================================
// Resolution
// =============================================================================

func TestGet_InstanceAndProvider(t *testing.T) {
	c := New("global", zaptest.NewLogger(t).Sugar(), Hooks{})
	builds := 0
	c.Add(
		&settings{project: "my-project"},
		Provide(func(c *Container) (*service, error) {
			builds++
			s, err := Get[*settings](c)
			if err != nil {
				return nil, err
			}
			return &service{settings: s}, nil
		}),
	)

	first, err := Get[*service](c)
	require.NoError(t, err)
	assert.Equal(t, "my-project", first.settings.project)

	second, err := Get[*service](c)
	require.NoError(t, err)
	assert.Same(t, first, second, "lookup must be idempotent within a scope")
	assert.Equal(t, 1, builds)
}

func TestGet_InterfaceLookup(t *testing.T) {
	c := New("global", nil, Hooks{})
	c.Add(&english{name: "world"})

	g, err := Get[greeter](c)
	require.NoError(t, err)
	assert.Equal(t, "hello world", g.Greet())
}

func TestGet_NotFound(t *testing.T) {
	c := New("global", nil, Hooks{})

	_, err := Get[*settings](c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrComponentNotFound))
	assert.Contains(t, err.Error(), "*container.settings")
}

func TestOptional(t *testing.T) {
	c := New("global", nil, Hooks{})

	missing, err := Optional[*settings](c)
	require.NoError(t, err)
	assert.Nil(t, missing)

	s := &settings{}
	c.Add(s)
	found, err := Optional[*settings](c)
	require.NoError(t, err)
	assert.Same(t, s, found)

	c.Add(&english{name: "a"}, &french{})
	_, err = Optional[greeter](c)
	assert.True(t, errors.Is(err, errors.ErrAmbiguousComponent))
}

func TestGet_Ambiguous(t *testing.T) {
	c := New("global", nil, Hooks{})
	c.Add(&english{name: "a"}, &french{})

	_, err := Get[greeter](c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAmbiguousComponent))

	// an exact type match is not ambiguous
	e, err := Get[*english](c)
	require.NoError(t, err)
	assert.Equal(t, "a", e.name)
}

func TestGet_ExactProviderWinsOverAssignable(t *testing.T) {
	c := New("global", nil, Hooks{})
	c.Add(
		&english{name: "instance"},
		Provide(func(c *Container) (greeter, error) { return &french{}, nil }),
	)

	g, err := Get[greeter](c)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", g.Greet())
}

func TestGet_ParentChildVisibility(t *testing.T) {
	parent := New("global", nil, Hooks{})
	parent.Add(&settings{project: "from-parent"})

	child := parent.NewChild("analysis", Hooks{})
	child.Add(&english{name: "child"})

	s, err := Get[*settings](child)
	require.NoError(t, err, "parent registrations are visible from the child")
	assert.Equal(t, "from-parent", s.project)

	_, err = Get[*english](parent)
	require.Error(t, err, "child registrations are never visible from the parent")
	assert.True(t, errors.Is(err, errors.ErrComponentNotFound))

	assert.Same(t, parent, child.Parent())
	assert.Nil(t, parent.Parent())
}

func TestGet_ChildShadowsParent(t *testing.T) {
	parent := New("global", nil, Hooks{})
	parent.Add(&settings{project: "parent"})
	child := parent.NewChild("analysis", Hooks{})
	child.Add(&settings{project: "child"})

	s, err := Get[*settings](child)
	require.NoError(t, err)
	assert.Equal(t, "child", s.project)
}

func TestGet_ParentProviderCachedInParent(t *testing.T) {
	parent := New("global", nil, Hooks{})
	builds := 0
	parent.Add(Provide(func(c *Container) (*settings, error) {
		builds++
		return &settings{project: "shared"}, nil
	}))

	first := parent.NewChild("analysis-1", Hooks{})
	second := parent.NewChild("analysis-2", Hooks{})

	a := MustGet[*settings](first)
	b := MustGet[*settings](second)
	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)
}

func TestGet_DependencyOrder(t *testing.T) {
	c := New("global", nil, Hooks{})
	var order []string
	c.Add(
		Provide(func(c *Container) (*service, error) {
			s, err := Get[*settings](c)
			if err != nil {
				return nil, err
			}
			g, err := Get[greeter](c)
			if err != nil {
				return nil, err
			}
			order = append(order, "service")
			return &service{settings: s, greeter: g}, nil
		}),
		Provide(func(c *Container) (*settings, error) {
			order = append(order, "settings")
			return &settings{}, nil
		}),
		Provide(func(c *Container) (greeter, error) {
			order = append(order, "greeter")
			return &french{}, nil
		}),
	)

	_, err := Get[*service](c)
	require.NoError(t, err)
	assert.Equal(t, []string{"settings", "greeter", "service"}, order)
}

func TestGet_CircularDependency(t *testing.T) {
	c := New("global", nil, Hooks{})
	c.Add(
		Provide(func(c *Container) (*chicken, error) {
			if _, err := Get[*egg](c); err != nil {
				return nil, err
			}
			return &chicken{}, nil
		}),
		Provide(func(c *Container) (*egg, error) {
			if _, err := Get[*chicken](c); err != nil {
				return nil, err
			}
			return &egg{}, nil
		}),
	)

	_, err := Get[*chicken](c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCircularDependency))
	assert.Contains(t, err.Error(), "*container.chicken -> *container.egg -> *container.chicken")

	// the failed construction leaves nothing half-built behind
	_, err = Get[*chicken](c)
	assert.True(t, errors.Is(err, errors.ErrCircularDependency))
}

func TestGet_FactoryErrorIsWrapped(t *testing.T) {
	c := New("global", nil, Hooks{})
	boom := errors.New("storage unavailable")
	c.Add(Provide(func(c *Container) (*settings, error) { return nil, boom }))

	_, err := Get[*settings](c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "failed to build *container.settings")
}

func TestGet_ResolutionErrorPropagatesUnmodified(t *testing.T) {
	c := New("global", nil, Hooks{})
	c.Add(Provide(func(c *Container) (*service, error) {
		if _, err := Get[*settings](c); err != nil {
			return nil, err
		}
		return &service{}, nil
	}))

	_, err := Get[*service](c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrComponentNotFound))
	assert.NotContains(t, err.Error(), "failed to build")
}

// =============================================================================
// All
// =============================================================================

func TestAll(t *testing.T) {
	parent := New("global", nil, Hooks{})
	shared := &english{name: "shared"}
	parent.Add(shared, &french{})

	child := parent.NewChild("analysis", Hooks{})
	child.Add(&english{name: "child"}, shared)

	all, err := All[greeter](child)
	require.NoError(t, err)
	require.Len(t, all, 3, "shared instance is returned once")
	assert.Equal(t, "hello child", all[0].Greet(), "own registrations come first")
	assert.Same(t, shared, all[1])
	assert.Equal(t, "bonjour", all[2].Greet())

	none, err := All[*settings](child)
	require.NoError(t, err)
	assert.Empty(t, none)

	local, err := Local[greeter](child)
	require.NoError(t, err)
	require.Len(t, local, 2)
	assert.Equal(t, "hello child", local[0].Greet())
	assert.Same(t, shared, local[1])
}

type weight struct{ value int }

type holder struct{ payload any }

func TestAll_ValueInstances(t *testing.T) {
	t.Run("equal values are kept per registration", func(t *testing.T) {
		parent := New("global", nil, Hooks{})
		parent.Add(weight{1})
		child := parent.NewChild("analysis", Hooks{})
		child.Add(weight{1}, weight{1})

		all, err := All[weight](child)
		require.NoError(t, err)
		assert.Equal(t, []weight{{1}, {1}, {1}}, all)

		local, err := Local[weight](child)
		require.NoError(t, err)
		assert.Len(t, local, 2)
	})

	t.Run("unhashable payload", func(t *testing.T) {
		c := New("analysis", nil, Hooks{})
		c.Add(holder{payload: []int{1}}, holder{payload: map[string]int{"a": 1}})

		var all []holder
		require.NotPanics(t, func() {
			var err error
			all, err = All[holder](c)
			require.NoError(t, err)
		})
		assert.Len(t, all, 2)
	})

	t.Run("zero-size pointers of different types", func(t *testing.T) {
		type marker struct{}
		c := New("analysis", nil, Hooks{})
		c.Add(&french{}, &marker{})

		all, err := All[any](c)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

// =============================================================================
// Extensions
// =============================================================================

func TestExtensions_ActiveAndDeclared(t *testing.T) {
	c := New("analysis", nil, Hooks{})
	c.AddExtension("java", &english{name: "active"})
	c.DeclareExtension("java", &french{})
	c.AddExtension("", Provide(func(c *Container) (*settings, error) { return &settings{}, nil }))

	greeters, err := All[greeter](c)
	require.NoError(t, err)
	require.Len(t, greeters, 1)
	assert.Equal(t, "hello active", greeters[0].Greet())

	_, err = Get[*french](c)
	assert.True(t, errors.Is(err, errors.ErrComponentNotFound), "declared extensions are not resolvable")

	exts := c.Extensions()
	require.Len(t, exts, 3)
	assert.Equal(t, "java", exts[0].Owner)
	assert.True(t, exts[0].Active)
	assert.Equal(t, "", exts[1].Owner)
	assert.True(t, exts[1].Active)
	assert.Equal(t, "*container.settings", exts[1].Type.String())
	assert.Equal(t, "*container.french", exts[2].Type.String())
	assert.False(t, exts[2].Active)
}

func TestAdd_IgnoresNil(t *testing.T) {
	c := New("global", nil, Hooks{})
	c.Add(nil)
	c.AddExtension("java", nil)
	c.DeclareExtension("java", nil)
	assert.Empty(t, c.Extensions())
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestStart_RunsHooksInOrder(t *testing.T) {
	var calls []string
	c := New("analysis", nil, Hooks{
		BeforeStart: func(c *Container) error {
			calls = append(calls, "before")
			c.Add(Provide(func(c *Container) (*settings, error) {
				calls = append(calls, "build")
				return &settings{}, nil
			}))
			return nil
		},
		AfterStart: func(c *Container) error {
			calls = append(calls, "after")
			_, err := Get[*settings](c)
			return err
		},
	})

	require.NoError(t, c.Start())
	assert.Equal(t, []string{"before", "after", "build"}, calls)
	assert.Equal(t, StateStarted, c.State())

	err := c.Start()
	require.Error(t, err, "a scope starts once")
}

func TestStart_HookFailureAborts(t *testing.T) {
	afterCalled := false
	c := New("analysis", nil, Hooks{
		BeforeStart: func(c *Container) error {
			_, err := Get[*settings](c)
			return err
		},
		AfterStart: func(c *Container) error {
			afterCalled = true
			return nil
		},
	})

	err := c.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrComponentNotFound))
	assert.False(t, afterCalled)
	assert.Equal(t, StateFailed, c.State())
}

func TestStop(t *testing.T) {
	var stopped []string
	external := &stoppable{name: "external", stopped: &stopped}

	c := New("analysis", nil, Hooks{})
	c.Add(
		external,
		Provide(func(c *Container) (*settings, error) { return &settings{}, nil }),
		Provide(func(c *Container) (*stoppable, error) {
			if _, err := Get[*settings](c); err != nil {
				return nil, err
			}
			return &stoppable{name: "built-first", stopped: &stopped}, nil
		}),
	)
	child := New("other", nil, Hooks{})
	child.Add(Provide(func(c *Container) (Stopper, error) {
		return &stoppable{name: "other", stopped: &stopped}, nil
	}))

	_, err := All[*stoppable](c)
	require.NoError(t, err)
	_, err = Get[Stopper](child)
	require.NoError(t, err)

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())
	assert.Equal(t, []string{"built-first", "external"}, stopped, "built components first, then added instances")
	assert.Equal(t, StateStopped, c.State())

	_, err = Get[*settings](c)
	assert.True(t, errors.Is(err, errors.ErrContainerStopped))
	_, err = All[*settings](c)
	assert.True(t, errors.Is(err, errors.ErrContainerStopped))

	require.NoError(t, c.Stop(), "stopping twice is a no-op")
	assert.Len(t, stopped, 2)
}

func TestStop_ChildDoesNotStopParent(t *testing.T) {
	var stopped []string
	parent := New("global", nil, Hooks{})
	parent.Add(Provide(func(c *Container) (*stoppable, error) {
		return &stoppable{name: "parent", stopped: &stopped}, nil
	}))
	child := parent.NewChild("analysis", Hooks{})

	_, err := Get[*stoppable](child)
	require.NoError(t, err)
	require.NoError(t, child.Stop())
	assert.Empty(t, stopped)

	s, err := Get[*stoppable](parent)
	require.NoError(t, err, "parent keeps working after the child stops")
	assert.Equal(t, "parent", s.name)

	_, err = Get[*stoppable](child)
	assert.True(t, errors.Is(err, errors.ErrContainerStopped))
}

func TestStop_AddedInstancesInReverseOrder(t *testing.T) {
	var stopped []string
	c := New("global", nil, Hooks{})
	c.Add(
		&stoppable{name: "first", stopped: &stopped},
		&settings{},
		&stoppable{name: "second", stopped: &stopped},
	)

	require.NoError(t, c.Stop())
	assert.Equal(t, []string{"second", "first"}, stopped)
}

func TestStop_AfterFailedStart(t *testing.T) {
	var stopped []string
	c := New("global", nil, Hooks{
		BeforeStart: func(c *Container) error {
			c.Add(Provide(func(c *Container) (*stoppable, error) {
				return &stoppable{name: "opened", stopped: &stopped}, nil
			}))
			if _, err := Get[*stoppable](c); err != nil {
				return err
			}
			return errors.New("install failed")
		},
	})

	require.Error(t, c.Start())
	assert.Equal(t, StateFailed, c.State())

	require.NoError(t, c.Stop())
	assert.Equal(t, []string{"opened"}, stopped)
	assert.Equal(t, StateStopped, c.State())
}

func TestStop_CombinesErrors(t *testing.T) {
	var stopped []string
	c := New("analysis", nil, Hooks{})
	c.Add(Provide(func(c *Container) (*stoppable, error) {
		return &stoppable{name: "failing", stopped: &stopped, err: errors.New("close failed")}, nil
	}))
	_, err := Get[*stoppable](c)
	require.NoError(t, err)

	err = c.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	assert.Equal(t, StateStopped, c.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
