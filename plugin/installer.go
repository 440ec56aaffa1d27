package plugin

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
)

// Summary counts the outcome of one Install pass.
type Summary struct {
	Active   int
	Declared int
}

// Installer registers plugin extensions into a scope.
type Installer struct {
	repo *Repository
	log  *zap.SugaredLogger
}

// NewInstaller creates an installer over the plugins of repo. A nil repo
// installs only what the scope's extension providers produce.
func NewInstaller(repo *Repository, log *zap.SugaredLogger) *Installer {
	return &Installer{repo: repo, log: logger.Component(log, "installer")}
}

// Install classifies and registers every extension contributed by the loaded
// plugins, then runs the extension providers registered in c and installs
// what they produce with no owning plugin. Accepted extensions become active
// components of c; the others are only declared.
//
// Install is meant to run once per scope.
func (i *Installer) Install(c *container.Container, m Matcher) (Summary, error) {
	var sum Summary

	if i.repo != nil {
		for _, p := range i.repo.Plugins() {
			key := p.Info().Key
			for _, ext := range p.Extensions() {
				if active, ok := i.install(c, m, key, ext); ok {
					sum.record(active)
				}
			}
		}
	}

	providers, err := container.Local[*ExtensionProvider](c)
	if err != nil {
		return sum, err
	}
	for _, p := range providers {
		exts, err := p.provide(c)
		if err != nil {
			if errors.IsResolutionError(err) {
				return sum, err
			}
			return sum, errors.Wrapf(err, "extension provider %q failed", p.Name())
		}
		i.log.Debugw("Extension provider produced extensions",
			logger.FieldExtension, p.Name(),
			logger.FieldCount, len(exts))
		for _, ext := range exts {
			if active, ok := i.install(c, m, "", ext); ok {
				sum.record(active)
			}
		}
	}

	i.log.Infow("Installed extensions",
		logger.FieldContainer, c.Name(),
		logger.FieldActive, sum.Active,
		logger.FieldCount, sum.Active+sum.Declared)
	return sum, nil
}

// install reports whether ext became active; ok is false for a nil
// extension, including a typed nil such as a nil *T.
func (i *Installer) install(c *container.Container, m Matcher, owner string, ext Extension) (active, ok bool) {
	if isNil(ext) {
		i.log.Debugw("Skipped nil extension", logger.FieldOwner, owner)
		return false, false
	}

	var item any = ext
	if l, isLazy := ext.(LazyExtension); isLazy {
		item = l.Provider()
	}

	if m.Accept(ext) {
		c.AddExtension(owner, item)
		return true, true
	}
	c.DeclareExtension(owner, item)
	return false, true
}

func (s *Summary) record(active bool) {
	if active {
		s.Active++
	} else {
		s.Declared++
	}
}

func isNil(ext Extension) bool {
	if ext == nil {
		return true
	}
	switch v := reflect.ValueOf(ext); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
