// Package rules holds rule definitions and the active-rule set of an analysis.
package rules

import (
	"strings"

	"github.com/teranos/qlint/errors"
)

// RuleKey identifies a rule within a rule repository.
type RuleKey struct {
	Repository string
	Rule       string
}

// NewRuleKey returns the key of rule in repository.
func NewRuleKey(repository, rule string) RuleKey {
	return RuleKey{Repository: repository, Rule: rule}
}

// ParseRuleKey parses the "repository:rule" form. The rule part may itself
// contain colons.
func ParseRuleKey(s string) (RuleKey, error) {
	repo, rule, ok := strings.Cut(s, ":")
	if !ok || repo == "" || rule == "" {
		return RuleKey{}, errors.Wrapf(errors.ErrInvalidRequest, "invalid rule key %q, expected repository:rule", s)
	}
	return RuleKey{Repository: repo, Rule: rule}, nil
}

// String returns the "repository:rule" form.
func (k RuleKey) String() string {
	return k.Repository + ":" + k.Rule
}

// Less orders keys by repository, then rule.
func (k RuleKey) Less(other RuleKey) bool {
	if k.Repository != other.Repository {
		return k.Repository < other.Repository
	}
	return k.Rule < other.Rule
}
