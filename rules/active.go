package rules

import (
	"maps"
	"sort"

	"github.com/teranos/qlint/errors"
)

// ActiveRule is a rule enabled by a quality profile: its definition plus the
// overrides the profile sets.
type ActiveRule struct {
	def      *Definition
	severity string
	params   map[string]string
}

// NewActiveRule adapts def with a profile's severity and parameter overrides.
// An empty severity keeps the definition's default.
func NewActiveRule(def *Definition, severity string, params map[string]string) *ActiveRule {
	return &ActiveRule{def: def, severity: severity, params: maps.Clone(params)}
}

func (r *ActiveRule) Key() RuleKey            { return r.def.Key }
func (r *ActiveRule) Definition() *Definition { return r.def }
func (r *ActiveRule) Name() string            { return r.def.Name }
func (r *ActiveRule) Language() string        { return r.def.Language }
func (r *ActiveRule) TemplateKey() string     { return r.def.TemplateKey }

// Severity returns the profile's severity, or the definition default.
func (r *ActiveRule) Severity() string {
	if r.severity != "" {
		return r.severity
	}
	return r.def.Severity
}

// Param returns the value of a parameter, falling back to the definition
// default.
func (r *ActiveRule) Param(key string) (string, bool) {
	if v, ok := r.params[key]; ok {
		return v, true
	}
	v, ok := r.def.Params[key]
	return v, ok
}

// Params returns the effective parameters.
func (r *ActiveRule) Params() map[string]string {
	out := maps.Clone(r.def.Params)
	if out == nil {
		out = make(map[string]string, len(r.params))
	}
	maps.Copy(out, r.params)
	return out
}

// ActiveRules is the immutable set of rules active for one analysis.
type ActiveRules struct {
	byKey  map[RuleKey]*ActiveRule
	sorted []*ActiveRule
}

// NewActiveRules builds the set. Keys are unique; a duplicate is a
// programming error.
func NewActiveRules(rules []*ActiveRule) (*ActiveRules, error) {
	set := &ActiveRules{byKey: make(map[RuleKey]*ActiveRule, len(rules))}
	for _, r := range rules {
		if _, dup := set.byKey[r.Key()]; dup {
			return nil, errors.AssertionFailedf("duplicate active rule %s", r.Key())
		}
		set.byKey[r.Key()] = r
		set.sorted = append(set.sorted, r)
	}
	sort.Slice(set.sorted, func(i, j int) bool {
		return set.sorted[i].Key().Less(set.sorted[j].Key())
	})
	return set, nil
}

// Find returns the active rule with key.
func (s *ActiveRules) Find(key RuleKey) (*ActiveRule, bool) {
	r, ok := s.byKey[key]
	return r, ok
}

// FindAll returns every active rule ordered by key.
func (s *ActiveRules) FindAll() []*ActiveRule {
	return append([]*ActiveRule(nil), s.sorted...)
}

// FindByRepository returns the active rules of one rule repository.
func (s *ActiveRules) FindByRepository(repository string) []*ActiveRule {
	var out []*ActiveRule
	for _, r := range s.sorted {
		if r.Key().Repository == repository {
			out = append(out, r)
		}
	}
	return out
}

// FindByLanguage returns the active rules of one language.
func (s *ActiveRules) FindByLanguage(language string) []*ActiveRule {
	var out []*ActiveRule
	for _, r := range s.sorted {
		if r.Language() == language {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of active rules.
func (s *ActiveRules) Len() int {
	return len(s.byKey)
}
