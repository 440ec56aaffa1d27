package engine

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/qlint/am"
	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
	qlinttest "github.com/teranos/qlint/internal/testing"
	"github.com/teranos/qlint/plugin"
	"github.com/teranos/qlint/plugin/builtin"
	"github.com/teranos/qlint/storage"
	"github.com/teranos/qlint/validate"
)

// fakeServer answers GETs from canned bodies.
type fakeServer struct {
	bodies    map[string]string
	requested []string
}

func (f *fakeServer) Get(_ context.Context, path string) (io.ReadCloser, error) {
	f.requested = append(f.requested, path)
	body, ok := f.bodies[path]
	if !ok {
		return nil, errors.NewNotFoundError("GET %s", path)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func serverWithJava(javaVersion string) *fakeServer {
	return &fakeServer{bodies: map[string]string{
		validate.ServerVersionPath:    "7.9.1",
		validate.InstalledPluginsPath: `{"plugins":[{"key":"java","name":"Java","version":"` + javaVersion + `"}]}`,
	}}
}

var fixture = storage.Fixture{
	Rules: []storage.FixtureRule{
		{Key: "java:S100", Name: "Method names", Language: "java"},
		{Key: "java:S101", Name: "Class names", Language: "java"},
		{Key: "xml:S125", Name: "Commented code", Language: "xml"},
	},
	Profiles: []storage.FixtureProfile{
		{Key: "java-way", Name: "Sonar way", Language: "java", Default: true},
		{Key: "java-strict", Name: "Strict", Language: "java"},
		{Key: "xml-way", Name: "Sonar way", Language: "xml", Default: true},
	},
	ActiveRules: []storage.FixtureActiveRule{
		{Profile: "java-way", Rule: "java:S100"},
		{Profile: "java-strict", Rule: "java:S100", Severity: "BLOCKER"},
		{Profile: "java-strict", Rule: "java:S101"},
		{Profile: "xml-way", Rule: "xml:S125"},
	},
	Projects: []storage.FixtureProject{
		{Key: "my-project", Profiles: map[string]string{"java": "java-strict"}},
	},
}

// setupConfig returns a standalone configuration over a populated storage.
func setupConfig(t *testing.T) *am.Config {
	t.Helper()
	cfg := am.Default()
	cfg.Storage.Path = qlinttest.CreateStorageFile(t, &fixture)
	cfg.Analysis.Mode = am.ModeStandalone
	return cfg
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	e, err := New(opts, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func TestEngine_AnalyzeDefaultProfiles(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Analysis.Languages = []string{"java"}
	e := newEngine(t, Options{Config: cfg})

	require.NoError(t, e.Start(context.Background()))

	acfg, err := e.NewAnalysisConfiguration(t.TempDir())
	require.NoError(t, err)
	report, err := e.Analyze(context.Background(), acfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"java"}, report.Languages)
	require.Equal(t, 1, report.ActiveRules.Len())
	assert.Equal(t, "java:S100", report.ActiveRules.FindAll()[0].Key().String())
	assert.Equal(t, 1, report.Sensors.Executed)

	// Each run gets its own scope
	again, err := e.Analyze(context.Background(), acfg, nil)
	require.NoError(t, err)
	assert.NotSame(t, report.ActiveRules, again.ActiveRules)
}

func TestEngine_AnalyzeProjectProfiles(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Analysis.ProjectKey = "my-project"
	e := newEngine(t, Options{Config: cfg})
	require.NoError(t, e.Start(context.Background()))

	acfg, err := e.NewAnalysisConfiguration("")
	require.NoError(t, err)
	report, err := e.Analyze(context.Background(), acfg, nil)
	require.NoError(t, err)

	// xml has no profile bound for the project
	assert.Equal(t, 2, report.ActiveRules.Len())
	s100, ok := report.ActiveRules.Find(report.ActiveRules.FindAll()[0].Key())
	require.True(t, ok)
	assert.Equal(t, "BLOCKER", s100.Severity())
}

func TestEngine_AnalyzeUnknownProject(t *testing.T) {
	cfg := setupConfig(t)
	cfg.Analysis.ProjectKey = "elsewhere"
	e := newEngine(t, Options{Config: cfg})
	require.NoError(t, e.Start(context.Background()))

	acfg, err := e.NewAnalysisConfiguration("")
	require.NoError(t, err)
	_, err = e.Analyze(context.Background(), acfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestEngine_AnalyzeRequiresStart(t *testing.T) {
	e := newEngine(t, Options{Config: setupConfig(t)})

	acfg, err := e.NewAnalysisConfiguration("")
	require.NoError(t, err)
	_, err = e.Analyze(context.Background(), acfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestEngine_StopClosesStorage(t *testing.T) {
	e := newEngine(t, Options{Config: setupConfig(t)})
	require.NoError(t, e.Start(context.Background()))

	acfg, err := e.NewAnalysisConfiguration("")
	require.NoError(t, err)
	_, err = e.Analyze(context.Background(), acfg, nil)
	require.NoError(t, err)

	require.NoError(t, e.Stop())
	assert.Equal(t, container.StateStopped, e.Global().State())

	_, err = e.Analyze(context.Background(), acfg, nil)
	assert.Error(t, err)
}

func TestEngine_Gate(t *testing.T) {
	t.Run("unsupported server aborts start", func(t *testing.T) {
		cfg := setupConfig(t)
		cfg.Analysis.Mode = am.ModeConnected
		server := serverWithJava("3.0")
		e := newEngine(t, Options{Config: cfg, Client: server})

		err := e.Start(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsUnsupportedServerError(err))
		assert.Equal(t,
			"The following plugins do not meet the required minimum versions, please upgrade them: Java (installed: 3.0, minimum: 3.14)",
			err.Error())
		assert.Equal(t, container.StateCreated, e.Global().State())
	})

	t.Run("supported server starts", func(t *testing.T) {
		cfg := setupConfig(t)
		cfg.Analysis.Mode = am.ModeConnected
		server := serverWithJava("6.3")
		e := newEngine(t, Options{Config: cfg, Client: server})

		require.NoError(t, e.Start(context.Background()))
		assert.Equal(t, []string{validate.ServerVersionPath, validate.InstalledPluginsPath}, server.requested)
	})

	t.Run("standalone skips the check", func(t *testing.T) {
		server := serverWithJava("3.0")
		e := newEngine(t, Options{Config: setupConfig(t), Client: server})

		require.NoError(t, e.Start(context.Background()))
		assert.Empty(t, server.requested)
	})

	t.Run("connected without server skips the check", func(t *testing.T) {
		cfg := setupConfig(t)
		cfg.Analysis.Mode = am.ModeConnected
		e := newEngine(t, Options{Config: cfg})
		require.NoError(t, e.Start(context.Background()))
	})
}

func TestEngine_CheckCompatibility(t *testing.T) {
	t.Run("probes the server version", func(t *testing.T) {
		server := serverWithJava("3.14")
		e := newEngine(t, Options{Client: server})

		res, err := e.CheckCompatibility(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, validate.ProtocolInstalled, res.Protocol)
	})

	t.Run("explicit version", func(t *testing.T) {
		server := &fakeServer{bodies: map[string]string{
			validate.PluginIndexPath: "java,false,sonar-java-plugin-3.1.jar|abc\n",
		}}
		e := newEngine(t, Options{Client: server})

		res, err := e.CheckCompatibility(context.Background(), "5.1")
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, []string{validate.PluginIndexPath}, server.requested)
	})

	t.Run("no server", func(t *testing.T) {
		e := newEngine(t, Options{})
		_, err := e.CheckCompatibility(context.Background(), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	})
}

type globalExtension struct{}

func (globalExtension) Roles() plugin.Role { return plugin.RoleGlobal }

type globalPlugin struct{}

func (globalPlugin) Info() plugin.Info {
	return plugin.Info{Key: "extra", Name: "Extra", Version: "1.0"}
}
func (globalPlugin) Extensions() []plugin.Extension {
	return []plugin.Extension{globalExtension{}}
}

func TestEngine_GlobalExtensions(t *testing.T) {
	e := newEngine(t, Options{Config: setupConfig(t), Plugins: []plugin.Plugin{globalPlugin{}}})
	require.NoError(t, e.Start(context.Background()))

	_, err := container.Get[globalExtension](e.Global())
	assert.NoError(t, err)

	var active, declared []string
	for _, ext := range e.Global().Extensions() {
		if ext.Active {
			active = append(active, ext.Owner)
		} else {
			declared = append(declared, ext.Owner)
		}
	}
	assert.Equal(t, []string{"extra"}, active)
	assert.Equal(t, []string{builtin.Key, builtin.Key}, declared)

	var keys []string
	for _, info := range e.Plugins() {
		keys = append(keys, info.Key)
	}
	assert.Equal(t, []string{builtin.Key, "extra"}, keys)
}

// closingReader records whether the engine released it.
type closingReader struct {
	storage.Reader
	stopped bool
}

func (r *closingReader) Stop() error {
	r.stopped = true
	return nil
}

type brokenPlugin struct{}

func (brokenPlugin) Info() plugin.Info {
	return plugin.Info{Key: "broken", Name: "Broken", Version: "1.0"}
}
func (brokenPlugin) Extensions() []plugin.Extension {
	return []plugin.Extension{
		plugin.ProvideOne("broken-rules", plugin.RoleGlobal, func(c *container.Container) (plugin.Extension, error) {
			if _, err := container.Get[*storage.Rules](c); err != nil {
				return nil, err
			}
			return nil, errors.New("no rules for you")
		}),
	}
}

func TestEngine_StartFailureReleasesGlobalScope(t *testing.T) {
	reader := &closingReader{Reader: qlinttest.CreateTestStore(t, &fixture)}
	cfg := am.Default()
	cfg.Analysis.Mode = am.ModeStandalone
	e := newEngine(t, Options{Config: cfg, Reader: reader, Plugins: []plugin.Plugin{brokenPlugin{}}})

	err := e.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `extension provider "broken-rules" failed: no rules for you`)
	assert.Equal(t, container.StateStopped, e.Global().State())
	assert.True(t, reader.stopped)

	require.NoError(t, e.Stop(), "stopping again is a no-op")
}

func TestNew_DuplicatePlugin(t *testing.T) {
	_, err := New(Options{Plugins: []plugin.Plugin{builtin.New()}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin already registered: builtin")
}

func TestNew_InvalidServerURL(t *testing.T) {
	cfg := am.Default()
	cfg.Server.URL = "ftp://example.com"
	_, err := New(Options{Config: cfg}, nil)
	assert.Error(t, err)
}
