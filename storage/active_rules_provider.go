package storage

import (
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/metric"
	"github.com/teranos/qlint/rules"
)

// AnalysisTarget identifies what an analysis runs against. An empty project
// key means no project is bound.
type AnalysisTarget interface {
	ProjectKey() string
}

// ActiveRulesProvider computes the active rules of one analysis from stored
// quality profiles. It belongs to a single analysis scope: the first
// successful result is kept and returned by every later call.
type ActiveRulesProvider struct {
	reader  Reader
	log     *zap.SugaredLogger
	metrics *metric.Bootstrap

	activeRules *rules.ActiveRules
}

// NewActiveRulesProvider creates a provider reading profiles through reader.
func NewActiveRulesProvider(reader Reader, log *zap.SugaredLogger, metrics *metric.Bootstrap) *ActiveRulesProvider {
	return &ActiveRulesProvider{
		reader:  reader,
		log:     logger.Component(log, "rules"),
		metrics: metrics,
	}
}

// Provide resolves the active rules for target:
//   - the profile of each language comes from the project configuration, or
//     from the default profiles when no project is bound
//   - languages not in languages are skipped
//   - profiles without active rules are skipped
//   - an active rule whose definition is not in defs fails the whole
//     resolution with ErrInconsistentStorage
func (p *ActiveRulesProvider) Provide(defs *Rules, profiles *QProfiles, languages *rules.Languages, target AnalysisTarget) (*rules.ActiveRules, error) {
	if p.activeRules != nil {
		return p.activeRules, nil
	}

	byLanguage, err := p.profilesByLanguage(profiles, target)
	if err != nil {
		return nil, err
	}

	langs := make([]string, 0, len(byLanguage))
	for lang := range byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var active []*rules.ActiveRule
	for _, lang := range langs {
		if _, ok := languages.Get(lang); !ok {
			continue
		}

		profileKey := byLanguage[lang]
		profile, err := profiles.GetOrFail(profileKey)
		if err != nil {
			return nil, err
		}

		if profile.ActiveRuleCount == 0 {
			p.log.Debugf("  * %s: '%s' (0 rules)", lang, profile.Name)
			continue
		}

		records, err := p.reader.ReadActiveRules(profileKey)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read active rules of profile %s", profileKey)
		}

		p.log.Debugf("  * %s: '%s' (%d rules)", lang, profile.Name, len(records))

		for _, rec := range records {
			r, err := newActiveRule(rec, defs)
			if err != nil {
				return nil, err
			}
			active = append(active, r)
		}
		p.metrics.RecordRules(lang, len(records))
	}

	set, err := rules.NewActiveRules(active)
	if err != nil {
		return nil, err
	}
	p.activeRules = set
	return set, nil
}

func (p *ActiveRulesProvider) profilesByLanguage(profiles *QProfiles, target AnalysisTarget) (map[string]string, error) {
	projectKey := target.ProjectKey()
	if projectKey == "" {
		p.log.Debug("Use default quality profiles:")
		return profiles.DefaultProfilesByLanguage(), nil
	}

	p.log.Debugw("Quality profiles:", logger.FieldProjectKey, projectKey)
	cfg, err := p.reader.ReadProjectConfig(projectKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration of project %s", projectKey)
	}
	return cfg.ProfilesByLanguage, nil
}

func newActiveRule(rec ActiveRuleRecord, defs *Rules) (*rules.ActiveRule, error) {
	key := rec.Key()
	def, err := defs.GetRuleOrFail(key.String())
	if err != nil {
		return nil, errors.NewInconsistentStorageError(err,
			"unknown active rule %s in the quality profile of the project", key)
	}
	return rules.NewActiveRule(def, rec.Severity, rec.Params), nil
}
