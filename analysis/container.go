package analysis

import (
	"context"

	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/metric"
	"github.com/teranos/qlint/plugin"
	"github.com/teranos/qlint/rules"
	"github.com/teranos/qlint/storage"
)

// ContainerName names analysis scopes in diagnostics.
const ContainerName = "analysis"

// NewContainer creates the scope of one analysis run as a child of global,
// which must provide the *plugin.Installer, a storage.Reader, *storage.Rules
// and *storage.QProfiles. A *metric.Bootstrap is used when present.
//
// Starting the scope installs the extensions matching cfg, then runs the
// sensors; issues go to listener, which may be nil. ctx bounds the sensors
// phase.
func NewContainer(ctx context.Context, global *container.Container, cfg *Configuration, listener IssueListener) *container.Container {
	return global.NewChild(ContainerName, container.Hooks{
		BeforeStart: func(c *container.Container) error {
			addCoreComponents(c, cfg, listener)
			return addPluginExtensions(c, cfg)
		},
		AfterStart: func(c *container.Container) error {
			c.Logger().Debugw("Start analysis",
				logger.FieldAnalysisID, cfg.ID.String(),
				logger.FieldProjectKey, cfg.Project)
			executor, err := container.Get[*SensorsExecutor](c)
			if err != nil {
				return err
			}
			_, err = executor.Execute(ctx)
			return err
		},
	})
}

func addCoreComponents(c *container.Container, cfg *Configuration, listener IssueListener) {
	c.Add(
		cfg,

		// languages
		container.Provide(func(c *container.Container) (*rules.Languages, error) {
			langs, err := container.All[rules.Language](c)
			if err != nil {
				return nil, err
			}
			return rules.NewLanguages(langs...), nil
		}),

		// rules
		container.Provide(func(c *container.Container) (*storage.ActiveRulesProvider, error) {
			reader, err := container.Get[storage.Reader](c)
			if err != nil {
				return nil, err
			}
			metrics, err := container.Optional[*metric.Bootstrap](c)
			if err != nil {
				return nil, err
			}
			return storage.NewActiveRulesProvider(reader, c.Logger(), metrics), nil
		}),
		container.Provide(resolveActiveRules),

		// sensors
		container.Provide(func(c *container.Container) (*SensorOptimizer, error) {
			langs, err := container.Get[*rules.Languages](c)
			if err != nil {
				return nil, err
			}
			active, err := container.Get[*rules.ActiveRules](c)
			if err != nil {
				return nil, err
			}
			return NewSensorOptimizer(langs, active, c.Logger()), nil
		}),
		container.Provide(func(c *container.Container) (*SensorContext, error) {
			langs, err := container.Get[*rules.Languages](c)
			if err != nil {
				return nil, err
			}
			active, err := container.Get[*rules.ActiveRules](c)
			if err != nil {
				return nil, err
			}
			return NewSensorContext(cfg, active, langs, listener, c.Logger()), nil
		}),
		container.Provide(newSensorsExecutor),
	)
}

func resolveActiveRules(c *container.Container) (*rules.ActiveRules, error) {
	provider, err := container.Get[*storage.ActiveRulesProvider](c)
	if err != nil {
		return nil, err
	}
	defs, err := container.Get[*storage.Rules](c)
	if err != nil {
		return nil, err
	}
	profiles, err := container.Get[*storage.QProfiles](c)
	if err != nil {
		return nil, err
	}
	langs, err := container.Get[*rules.Languages](c)
	if err != nil {
		return nil, err
	}
	cfg, err := container.Get[*Configuration](c)
	if err != nil {
		return nil, err
	}
	return provider.Provide(defs, profiles, langs, cfg)
}

func newSensorsExecutor(c *container.Container) (*SensorsExecutor, error) {
	sensors, err := container.All[Sensor](c)
	if err != nil {
		return nil, err
	}
	optimizer, err := container.Get[*SensorOptimizer](c)
	if err != nil {
		return nil, err
	}
	sc, err := container.Get[*SensorContext](c)
	if err != nil {
		return nil, err
	}
	metrics, err := container.Optional[*metric.Bootstrap](c)
	if err != nil {
		return nil, err
	}
	return NewSensorsExecutor(sensors, optimizer, sc, metrics, c.Logger()), nil
}

func addPluginExtensions(c *container.Container, cfg *Configuration) error {
	installer, err := container.Get[*plugin.Installer](c)
	if err != nil {
		return err
	}
	sum, err := installer.Install(c, cfg.Matcher())
	if err != nil {
		return err
	}

	metrics, err := container.Optional[*metric.Bootstrap](c)
	if err != nil {
		return err
	}
	metrics.RecordExtensions(c.Name(), sum.Active, sum.Declared)
	return nil
}

// Report is what remains of a finished analysis scope.
type Report struct {
	ID          string
	Project     string
	Languages   []string
	ActiveRules *rules.ActiveRules
	Sensors     ExecutionSummary
	Extensions  []container.ExtensionInfo
}

// NewReport collects the outcome of a started analysis scope. It must be
// called before the scope is stopped.
func NewReport(c *container.Container) (*Report, error) {
	if c.State() != container.StateStarted {
		return nil, errors.Newf("analysis scope is %s, not started", c.State())
	}
	cfg, err := container.Get[*Configuration](c)
	if err != nil {
		return nil, err
	}
	langs, err := container.Get[*rules.Languages](c)
	if err != nil {
		return nil, err
	}
	active, err := container.Get[*rules.ActiveRules](c)
	if err != nil {
		return nil, err
	}
	executor, err := container.Get[*SensorsExecutor](c)
	if err != nil {
		return nil, err
	}
	return &Report{
		ID:          cfg.ID.String(),
		Project:     cfg.Project,
		Languages:   langs.Keys(),
		ActiveRules: active,
		Sensors:     executor.Summary(),
		Extensions:  c.Extensions(),
	}, nil
}
