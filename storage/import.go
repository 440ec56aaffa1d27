package storage

import (
	"github.com/BurntSushi/toml"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/rules"
)

// Fixture is the TOML layout accepted by Import.
//
//	[[rules]]
//	key = "java:S100"
//	name = "Method names should comply with a naming convention"
//	language = "java"
//	params = { format = "^[a-z][a-zA-Z0-9]*$" }
//
//	[[profiles]]
//	key = "java-sonar-way"
//	name = "Sonar way"
//	language = "java"
//	default = true
//
//	[[active_rules]]
//	profile = "java-sonar-way"
//	rule = "java:S100"
//	severity = "MINOR"
//
//	[[projects]]
//	key = "my-project"
//	profiles = { java = "java-sonar-way" }
type Fixture struct {
	Rules       []FixtureRule       `toml:"rules"`
	Profiles    []FixtureProfile    `toml:"profiles"`
	ActiveRules []FixtureActiveRule `toml:"active_rules"`
	Projects    []FixtureProject    `toml:"projects"`
}

type FixtureRule struct {
	Key         string            `toml:"key"`
	Name        string            `toml:"name"`
	Language    string            `toml:"language"`
	Severity    string            `toml:"severity"`
	Type        string            `toml:"type"`
	Description string            `toml:"description"`
	TemplateKey string            `toml:"template_key"`
	Params      map[string]string `toml:"params"`
}

type FixtureProfile struct {
	Key      string `toml:"key"`
	Name     string `toml:"name"`
	Language string `toml:"language"`
	Default  bool   `toml:"default"`
}

type FixtureActiveRule struct {
	Profile  string            `toml:"profile"`
	Rule     string            `toml:"rule"`
	Severity string            `toml:"severity"`
	Params   map[string]string `toml:"params"`
}

type FixtureProject struct {
	Key      string            `toml:"key"`
	Profiles map[string]string `toml:"profiles"`
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Rules       int
	Profiles    int
	ActiveRules int
	Projects    int
}

// ImportTOML decodes a fixture file and imports it into s.
func ImportTOML(s *Store, path string) (ImportSummary, error) {
	var f Fixture
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return ImportSummary{}, errors.Wrapf(err, "failed to decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return ImportSummary{}, errors.Wrapf(errors.ErrInvalidRequest, "unknown key %q in %s", undecoded[0].String(), path)
	}
	return s.Import(&f)
}

// Import writes the fixture in one transaction. Active rules are not checked
// against rule definitions; readers report the mismatch. Profile rule counts
// are recomputed from the stored active rules.
func (s *Store) Import(f *Fixture) (ImportSummary, error) {
	var sum ImportSummary

	tx, err := s.db.Begin()
	if err != nil {
		return sum, errors.Wrap(err, "failed to begin import")
	}
	rollback := func(err error) (ImportSummary, error) {
		_ = tx.Rollback()
		return ImportSummary{}, err
	}

	for _, r := range f.Rules {
		key, err := rules.ParseRuleKey(r.Key)
		if err != nil {
			return rollback(err)
		}
		def := &rules.Definition{
			Key:         key,
			Name:        r.Name,
			Language:    r.Language,
			Severity:    defaultString(r.Severity, rules.SeverityMajor),
			Type:        defaultString(r.Type, "CODE_SMELL"),
			Description: r.Description,
			TemplateKey: r.TemplateKey,
			Params:      r.Params,
		}
		if def.Name == "" {
			def.Name = key.String()
		}
		if err := putRule(tx, def); err != nil {
			return rollback(err)
		}
		sum.Rules++
	}

	for _, p := range f.Profiles {
		if p.Key == "" || p.Language == "" {
			return rollback(errors.Wrapf(errors.ErrInvalidRequest, "profile %q needs a key and a language", p.Name))
		}
		if err := putQualityProfile(tx, QualityProfile{
			Key:      p.Key,
			Name:     defaultString(p.Name, p.Key),
			Language: p.Language,
			Default:  p.Default,
		}); err != nil {
			return rollback(err)
		}
		sum.Profiles++
	}

	for _, ar := range f.ActiveRules {
		key, err := rules.ParseRuleKey(ar.Rule)
		if err != nil {
			return rollback(err)
		}
		if err := putActiveRule(tx, ar.Profile, ActiveRuleRecord{
			Repository: key.Repository,
			Rule:       key.Rule,
			Severity:   ar.Severity,
			Params:     ar.Params,
		}); err != nil {
			return rollback(err)
		}
		sum.ActiveRules++
	}

	if _, err := tx.Exec(`UPDATE quality_profiles SET active_rule_count =
		(SELECT COUNT(*) FROM active_rules WHERE active_rules.profile_key = quality_profiles.profile_key)`); err != nil {
		return rollback(errors.Wrap(err, "failed to count active rules"))
	}

	for _, p := range f.Projects {
		if p.Key == "" {
			return rollback(errors.Wrap(errors.ErrInvalidRequest, "project key is empty"))
		}
		if err := putProjectConfig(tx, ProjectConfiguration{ProjectKey: p.Key, ProfilesByLanguage: p.Profiles}); err != nil {
			return rollback(err)
		}
		sum.Projects++
	}

	if err := tx.Commit(); err != nil {
		return ImportSummary{}, errors.Wrap(err, "failed to commit import")
	}

	s.log.Infow("Imported storage fixture",
		"rules", sum.Rules,
		"profiles", sum.Profiles,
		"active_rules", sum.ActiveRules,
		"projects", sum.Projects,
		logger.FieldOperation, "import")
	return sum, nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
