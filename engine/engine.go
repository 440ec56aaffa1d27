// Package engine runs the bootstrap sequence of qlint: the plugin
// compatibility gate, then the global scope, then one analysis scope per
// run.
package engine

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/teranos/qlint/am"
	"github.com/teranos/qlint/analysis"
	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/metric"
	"github.com/teranos/qlint/plugin"
	"github.com/teranos/qlint/plugin/builtin"
	"github.com/teranos/qlint/storage"
	"github.com/teranos/qlint/validate"
	"github.com/teranos/qlint/version"
	"github.com/teranos/qlint/wsclient"
)

// GlobalContainerName names the process-wide scope.
const GlobalContainerName = "global"

// Options configures an Engine.
type Options struct {
	// Config defaults to am.Default()
	Config *am.Config

	// Plugins are loaded in addition to the built-in plugin
	Plugins []plugin.Plugin

	// Reader replaces the sqlite storage at Config.StoragePath(); one
	// implementing container.Stopper is stopped with the engine
	Reader storage.Reader

	// Client replaces the server transport built from Config.Server
	Client validate.Getter

	// Registerer receives the bootstrap metrics; nil leaves them unregistered
	Registerer prometheus.Registerer
}

// Engine owns the global scope and starts analyses under it.
type Engine struct {
	cfg     *am.Config
	log     *zap.SugaredLogger
	repo    *plugin.Repository
	reader  storage.Reader
	client  validate.Getter
	metrics *metric.Bootstrap
	global  *container.Container
}

// New prepares an engine. Nothing is opened or contacted until Start.
func New(opts Options, log *zap.SugaredLogger) (*Engine, error) {
	log = logger.OrNop(log)

	cfg := opts.Config
	if cfg == nil {
		cfg = am.Default()
	}

	metrics, err := metric.NewBootstrap(opts.Registerer)
	if err != nil {
		return nil, err
	}

	repo := plugin.NewRepository(version.Get().HostVersion())
	for _, p := range append([]plugin.Plugin{builtin.New()}, opts.Plugins...) {
		if err := repo.Register(p); err != nil {
			return nil, errors.Wrap(err, "failed to load plugins")
		}
	}

	e := &Engine{
		cfg:     cfg,
		log:     logger.Component(log, "engine"),
		repo:    repo,
		reader:  opts.Reader,
		client:  opts.Client,
		metrics: metrics,
	}
	if e.client == nil && cfg.Server.URL != "" {
		client, err := wsclient.New(wsclient.Options{
			BaseURL:           cfg.Server.URL,
			Token:             cfg.Server.Token,
			Timeout:           cfg.Timeout(),
			RequestsPerSecond: cfg.Server.RequestsPerSecond,
			BlockPrivateIP:    cfg.Server.BlockPrivateIP,
		}, log)
		if err != nil {
			return nil, err
		}
		e.client = client
	}

	e.global = container.New(GlobalContainerName, log, container.Hooks{
		BeforeStart: e.populateGlobal,
	})
	return e, nil
}

// Global returns the process-wide scope.
func (e *Engine) Global() *container.Container {
	return e.global
}

// Plugins describes the loaded plugins in key order.
func (e *Engine) Plugins() []plugin.Info {
	return e.repo.Infos()
}

// Start checks plugin compatibility with the server, when analyses are
// connected and a server is configured, then starts the global scope. A
// global scope that fails to start is stopped before Start returns.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.gate(ctx); err != nil {
		return err
	}
	if err := e.global.Start(); err != nil {
		if stopErr := e.global.Stop(); stopErr != nil {
			err = errors.CombineErrors(err, stopErr)
		}
		return err
	}
	return nil
}

// Stop stops the global scope, closing the storage it opened.
func (e *Engine) Stop() error {
	return e.global.Stop()
}

func (e *Engine) gate(ctx context.Context) error {
	if !e.cfg.Connected() {
		e.log.Debugw("Standalone mode, skipping plugin compatibility check")
		return nil
	}
	if e.client == nil {
		e.log.Infow("No server configured, skipping plugin compatibility check")
		return nil
	}

	serverVersion, err := validate.ServerVersion(ctx, e.client)
	if err != nil {
		return err
	}
	checker, err := validate.NewChecker(e.client, e.log, e.metrics)
	if err != nil {
		return err
	}
	return checker.Enforce(ctx, serverVersion)
}

// CheckCompatibility validates the plugins installed on the configured
// server. An empty serverVersion is asked from the server.
func (e *Engine) CheckCompatibility(ctx context.Context, serverVersion string) (validate.Result, error) {
	if e.client == nil {
		return validate.Result{}, errors.WithHint(
			errors.Wrap(errors.ErrInvalidRequest, "no server configured"),
			"Set server.url in qlint.toml or QLINT_SERVER_URL.")
	}
	if serverVersion == "" {
		v, err := validate.ServerVersion(ctx, e.client)
		if err != nil {
			return validate.Result{}, err
		}
		serverVersion = v
	}

	checker, err := validate.NewChecker(e.client, e.log, e.metrics)
	if err != nil {
		return validate.Result{}, err
	}
	return checker.Validate(ctx, serverVersion)
}

// NewAnalysisConfiguration creates the configuration of a run over baseDir
// from the loaded settings.
func (e *Engine) NewAnalysisConfiguration(baseDir string) (*analysis.Configuration, error) {
	mode, err := analysis.ParseMode(e.cfg.Analysis.Mode)
	if err != nil {
		return nil, err
	}
	return analysis.NewConfiguration(e.cfg.Analysis.ProjectKey, baseDir, mode, e.cfg.Analysis.Languages...), nil
}

// Analyze runs one analysis in a fresh child of the global scope and stops
// that scope before returning.
func (e *Engine) Analyze(ctx context.Context, cfg *analysis.Configuration, listener analysis.IssueListener) (report *analysis.Report, err error) {
	if e.global.State() != container.StateStarted {
		return nil, errors.Newf("engine is %s, not started", e.global.State())
	}

	e.log.Infow("Starting analysis",
		logger.FieldAnalysisID, cfg.ID.String(),
		logger.FieldProjectKey, cfg.Project)

	c := analysis.NewContainer(ctx, e.global, cfg, listener)
	defer func() {
		if stopErr := c.Stop(); stopErr != nil {
			err = errors.CombineErrors(err, stopErr)
		}
	}()

	if err := c.Start(); err != nil {
		return nil, err
	}
	return analysis.NewReport(c)
}
