package engine

import (
	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/plugin"
	"github.com/teranos/qlint/storage"
)

// populateGlobal adds the process-wide components, then installs the
// extensions of the global role.
func (e *Engine) populateGlobal(c *container.Container) error {
	c.Add(
		e.repo,
		plugin.NewInstaller(e.repo, c.Logger()),
		e.cfg,
		e.metrics,
	)

	if e.reader != nil {
		c.Add(e.reader)
	} else {
		path := e.cfg.StoragePath()
		c.Add(container.Provide(func(c *container.Container) (*storage.Store, error) {
			c.Logger().Debugw("Opening storage", logger.FieldPath, path)
			return storage.Open(path, c.Logger())
		}))
	}

	c.Add(
		container.Provide(func(c *container.Container) (*storage.Rules, error) {
			reader, err := container.Get[storage.Reader](c)
			if err != nil {
				return nil, err
			}
			defs, err := reader.ReadRules()
			if err != nil {
				return nil, errors.Wrap(err, "failed to read rule definitions")
			}
			return defs, nil
		}),
		container.Provide(func(c *container.Container) (*storage.QProfiles, error) {
			reader, err := container.Get[storage.Reader](c)
			if err != nil {
				return nil, err
			}
			profiles, err := reader.ReadQualityProfiles()
			if err != nil {
				return nil, errors.Wrap(err, "failed to read quality profiles")
			}
			return profiles, nil
		}),
	)

	installer, err := container.Get[*plugin.Installer](c)
	if err != nil {
		return err
	}
	sum, err := installer.Install(c, plugin.MatchRoles(plugin.RoleGlobal))
	if err != nil {
		return err
	}
	e.metrics.RecordExtensions(c.Name(), sum.Active, sum.Declared)
	return nil
}
