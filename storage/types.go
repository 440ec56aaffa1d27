// Package storage reads and writes the local rule and quality-profile storage
// an analysis is bootstrapped from, and resolves the active rules of a run.
package storage

import (
	"sort"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/rules"
)

// QualityProfile is a language-scoped set of enabled rules.
type QualityProfile struct {
	Key             string
	Name            string
	Language        string
	ActiveRuleCount int
	Default         bool // the server default for its language
}

// QProfiles are all quality profiles known to storage.
type QProfiles struct {
	byKey    map[string]QualityProfile
	defaults map[string]string
}

// NewQProfiles indexes profiles by key.
func NewQProfiles(profiles ...QualityProfile) *QProfiles {
	q := &QProfiles{
		byKey:    make(map[string]QualityProfile, len(profiles)),
		defaults: make(map[string]string),
	}
	for _, p := range profiles {
		q.byKey[p.Key] = p
		if p.Default {
			q.defaults[p.Language] = p.Key
		}
	}
	return q
}

// GetOrFail returns the profile with key. A key missing from storage means
// the storage no longer matches the profile mapping that referenced it.
func (q *QProfiles) GetOrFail(key string) (QualityProfile, error) {
	p, ok := q.byKey[key]
	if !ok {
		return QualityProfile{}, errors.NewInconsistentStorageError(nil, "quality profile %q is missing from storage", key)
	}
	return p, nil
}

// DefaultProfilesByLanguage maps each language to its default profile key.
func (q *QProfiles) DefaultProfilesByLanguage() map[string]string {
	out := make(map[string]string, len(q.defaults))
	for lang, key := range q.defaults {
		out[lang] = key
	}
	return out
}

// All returns every profile ordered by language, then key.
func (q *QProfiles) All() []QualityProfile {
	out := make([]QualityProfile, 0, len(q.byKey))
	for _, p := range q.byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Language != out[j].Language {
			return out[i].Language < out[j].Language
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ActiveRuleRecord is one rule enabled by a profile, as stored.
type ActiveRuleRecord struct {
	Repository string
	Rule       string
	Severity   string
	Params     map[string]string
}

// Key returns the record's rule key.
func (r ActiveRuleRecord) Key() rules.RuleKey {
	return rules.NewRuleKey(r.Repository, r.Rule)
}

// ProjectConfiguration is the stored configuration of a bound project.
type ProjectConfiguration struct {
	ProjectKey         string
	ProfilesByLanguage map[string]string
}

// Rules are the rule definitions known to storage.
type Rules struct {
	defs *rules.Definitions
}

// NewRules wraps defs.
func NewRules(defs ...*rules.Definition) *Rules {
	return &Rules{defs: rules.NewDefinitions(defs...)}
}

// GetRuleOrFail returns the definition of a "repository:rule" key.
func (r *Rules) GetRuleOrFail(ruleKey string) (*rules.Definition, error) {
	key, err := rules.ParseRuleKey(ruleKey)
	if err != nil {
		return nil, err
	}
	def, ok := r.defs.Get(key)
	if !ok {
		return nil, errors.NewNotFoundError("rule %s", ruleKey)
	}
	return def, nil
}

// Definitions returns the underlying index.
func (r *Rules) Definitions() *rules.Definitions {
	return r.defs
}

// Len returns the number of rule definitions.
func (r *Rules) Len() int {
	return r.defs.Len()
}

// Reader is the read side of rule and profile storage.
type Reader interface {
	// ReadRules reads every rule definition
	ReadRules() (*Rules, error)

	// ReadQualityProfiles reads every quality profile
	ReadQualityProfiles() (*QProfiles, error)

	// ReadActiveRules reads the active rules of one profile
	ReadActiveRules(profileKey string) ([]ActiveRuleRecord, error)

	// ReadProjectConfig reads the profile mapping of a bound project
	ReadProjectConfig(projectKey string) (ProjectConfiguration, error)
}
