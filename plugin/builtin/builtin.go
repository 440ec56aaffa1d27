// Package builtin is the plugin shipped inside qlint. It contributes the
// language catalog, selected per run from the analysis configuration, and a
// sensor summarizing the active rules.
package builtin

import (
	"sort"
	"strings"

	"github.com/teranos/qlint/analysis"
	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/plugin"
	"github.com/teranos/qlint/version"
)

// Key is the plugin key of the built-in plugin.
const Key = "builtin"

const analysisRoles = plugin.RoleAnalysis | plugin.RoleStandalone | plugin.RoleConnected

// Language is a language known to qlint.
type Language struct {
	key  string
	name string
}

// NewLanguage creates a language extension valid in every analysis mode.
func NewLanguage(key, name string) *Language {
	return &Language{key: key, name: name}
}

func (l *Language) Key() string        { return l.key }
func (l *Language) Name() string       { return l.name }
func (l *Language) Roles() plugin.Role { return analysisRoles }

var catalog = map[string]string{
	"abap":  "ABAP",
	"c":     "C",
	"cobol": "COBOL",
	"cpp":   "C++",
	"cs":    "C#",
	"flex":  "Flex",
	"java":  "Java",
	"js":    "JavaScript",
	"php":   "PHP",
	"pli":   "PL/I",
	"py":    "Python",
	"rpg":   "RPG",
	"swift": "Swift",
	"ts":    "TypeScript",
	"vbnet": "VB.NET",
	"web":   "HTML",
	"xml":   "XML",
}

// LanguageKeys returns every language key of the catalog, sorted.
func LanguageKeys() []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Languages returns the catalog languages named by keys, in that order, or
// the whole catalog when keys is empty.
func Languages(keys []string) ([]*Language, error) {
	if len(keys) == 0 {
		keys = LanguageKeys()
	}
	out := make([]*Language, 0, len(keys))
	for _, k := range keys {
		name, ok := catalog[k]
		if !ok {
			return nil, errors.WithHintf(
				errors.Wrapf(errors.ErrInvalidRequest, "unknown language %q", k),
				"Known languages: %s", strings.Join(LanguageKeys(), ", "))
		}
		out = append(out, NewLanguage(k, name))
	}
	return out, nil
}

// Plugin is the built-in plugin.
type Plugin struct{}

// New returns the built-in plugin.
func New() *Plugin {
	return &Plugin{}
}

// Info implements plugin.Plugin.
func (p *Plugin) Info() plugin.Info {
	return plugin.Info{
		Key:         Key,
		Name:        "qlint built-in",
		Version:     version.Get().HostVersion(),
		Description: "Language catalog and active rules summary",
	}
}

// Extensions implements plugin.Plugin.
func (p *Plugin) Extensions() []plugin.Extension {
	return []plugin.Extension{
		LanguagesProvider(),
		plugin.Lazy(analysisRoles, newRulesSummarySensor),
	}
}

// LanguagesProvider produces the languages enabled for the run being
// installed.
func LanguagesProvider() *plugin.ExtensionProvider {
	return plugin.ProvideMany("languages", analysisRoles, func(c *container.Container) ([]plugin.Extension, error) {
		cfg, err := container.Get[*analysis.Configuration](c)
		if err != nil {
			return nil, err
		}
		langs, err := Languages(cfg.Languages)
		if err != nil {
			return nil, err
		}
		exts := make([]plugin.Extension, len(langs))
		for i, l := range langs {
			exts[i] = l
		}
		return exts, nil
	})
}
