package storage

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/metric"
	"github.com/teranos/qlint/rules"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeReader struct {
	activeRules map[string][]ActiveRuleRecord
	projects    map[string]ProjectConfiguration
	reads       map[string]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		activeRules: make(map[string][]ActiveRuleRecord),
		projects:    make(map[string]ProjectConfiguration),
		reads:       make(map[string]int),
	}
}

func (f *fakeReader) ReadRules() (*Rules, error)               { return NewRules(), nil }
func (f *fakeReader) ReadQualityProfiles() (*QProfiles, error) { return NewQProfiles(), nil }

func (f *fakeReader) ReadActiveRules(profileKey string) ([]ActiveRuleRecord, error) {
	f.reads[profileKey]++
	return f.activeRules[profileKey], nil
}

func (f *fakeReader) ReadProjectConfig(projectKey string) (ProjectConfiguration, error) {
	cfg, ok := f.projects[projectKey]
	if !ok {
		return cfg, errors.NewNotFoundError("project %s", projectKey)
	}
	return cfg, nil
}

type target string

func (t target) ProjectKey() string { return string(t) }

type lang string

func (l lang) Key() string  { return string(l) }
func (l lang) Name() string { return string(l) }

func def(repo, key, language string) *rules.Definition {
	return &rules.Definition{Key: rules.NewRuleKey(repo, key), Name: key, Language: language, Severity: rules.SeverityMajor}
}

func observedProvider(reader Reader, m *metric.Bootstrap) (*ActiveRulesProvider, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewActiveRulesProvider(reader, zap.New(core).Sugar(), m), logs
}

// =============================================================================
// Tests
// =============================================================================

func TestProvide_ProjectProfile(t *testing.T) {
	reader := newFakeReader()
	reader.projects["my-project"] = ProjectConfiguration{ProjectKey: "my-project", ProfilesByLanguage: map[string]string{"java": "p1"}}
	reader.activeRules["p1"] = []ActiveRuleRecord{{Repository: "repo", Rule: "key1", Severity: rules.SeverityBlocker}}

	defs := NewRules(def("repo", "key1", "java"))
	profiles := NewQProfiles(QualityProfile{Key: "p1", Name: "Way", Language: "java", ActiveRuleCount: 1})
	languages := rules.NewLanguages(lang("java"))

	m, err := metric.NewBootstrap(nil)
	require.NoError(t, err)
	p, logs := observedProvider(reader, m)

	set, err := p.Provide(defs, profiles, languages, target("my-project"))
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	r, ok := set.Find(rules.NewRuleKey("repo", "key1"))
	require.True(t, ok)
	assert.Equal(t, rules.SeverityBlocker, r.Severity())

	again, err := p.Provide(defs, profiles, languages, target("my-project"))
	require.NoError(t, err)
	assert.Same(t, set, again, "the rule set is computed once")
	assert.Equal(t, 1, reader.reads["p1"])

	assert.Equal(t, 1, logs.FilterMessage("  * java: 'Way' (1 rules)").Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RulesResolved.WithLabelValues("java")))
}

func TestProvide_DefaultProfiles(t *testing.T) {
	reader := newFakeReader()
	reader.activeRules["java-default"] = []ActiveRuleRecord{{Repository: "java", Rule: "S1"}}
	reader.activeRules["java-other"] = []ActiveRuleRecord{{Repository: "java", Rule: "S2"}}

	defs := NewRules(def("java", "S1", "java"), def("java", "S2", "java"))
	profiles := NewQProfiles(
		QualityProfile{Key: "java-default", Name: "Default", Language: "java", ActiveRuleCount: 1, Default: true},
		QualityProfile{Key: "java-other", Name: "Other", Language: "java", ActiveRuleCount: 1},
	)

	p, logs := observedProvider(reader, nil)
	set, err := p.Provide(defs, profiles, rules.NewLanguages(lang("java")), target(""))
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	_, ok := set.Find(rules.NewRuleKey("java", "S1"))
	assert.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("Use default quality profiles:").Len())
}

func TestProvide_SkipsUnsupportedLanguagesAndEmptyProfiles(t *testing.T) {
	reader := newFakeReader()
	reader.projects["p"] = ProjectConfiguration{ProfilesByLanguage: map[string]string{
		"java":  "java-p",
		"js":    "js-empty",
		"cobol": "cobol-p",
	}}
	reader.activeRules["java-p"] = []ActiveRuleRecord{{Repository: "java", Rule: "S1"}}

	profiles := NewQProfiles(
		QualityProfile{Key: "java-p", Name: "Java", Language: "java", ActiveRuleCount: 1},
		QualityProfile{Key: "js-empty", Name: "Empty", Language: "js", ActiveRuleCount: 0},
	)

	p, logs := observedProvider(reader, nil)
	set, err := p.Provide(NewRules(def("java", "S1", "java")), profiles, rules.NewLanguages(lang("java"), lang("js")), target("p"))
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	assert.Equal(t, 1, logs.FilterMessage("  * js: 'Empty' (0 rules)").Len())
	assert.Zero(t, reader.reads["js-empty"], "empty profiles are not read")
	assert.Zero(t, reader.reads["cobol-p"], "unsupported languages are not read")
}

func TestProvide_EmptyResultIsValid(t *testing.T) {
	reader := newFakeReader()
	reader.projects["p"] = ProjectConfiguration{ProfilesByLanguage: map[string]string{"js": "js-empty"}}
	profiles := NewQProfiles(QualityProfile{Key: "js-empty", Language: "js"})

	p, _ := observedProvider(reader, nil)
	set, err := p.Provide(NewRules(), profiles, rules.NewLanguages(lang("js")), target("p"))
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestProvide_UnknownRuleIsFatal(t *testing.T) {
	reader := newFakeReader()
	reader.projects["p"] = ProjectConfiguration{ProfilesByLanguage: map[string]string{"java": "p1"}}
	reader.activeRules["p1"] = []ActiveRuleRecord{
		{Repository: "repo", Rule: "known"},
		{Repository: "repo", Rule: "gone"},
	}
	profiles := NewQProfiles(QualityProfile{Key: "p1", Language: "java", ActiveRuleCount: 2})

	p, _ := observedProvider(reader, nil)
	set, err := p.Provide(NewRules(def("repo", "known", "java")), profiles, rules.NewLanguages(lang("java")), target("p"))
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.IsInconsistentStorageError(err))
	assert.Contains(t, err.Error(), "unknown active rule repo:gone")
	assert.Contains(t, errors.FlattenHints(err), "Please update the server binding.")

	// nothing was cached: a later call resolves again
	_, err = p.Provide(NewRules(def("repo", "known", "java")), profiles, rules.NewLanguages(lang("java")), target("p"))
	require.Error(t, err)
	assert.Equal(t, 2, reader.reads["p1"])
}

func TestProvide_MissingProfileIsFatal(t *testing.T) {
	reader := newFakeReader()
	reader.projects["p"] = ProjectConfiguration{ProfilesByLanguage: map[string]string{"java": "vanished"}}

	p, _ := observedProvider(reader, nil)
	_, err := p.Provide(NewRules(), NewQProfiles(), rules.NewLanguages(lang("java")), target("p"))
	require.Error(t, err)
	assert.True(t, errors.IsInconsistentStorageError(err))
}

func TestProvide_UnknownProject(t *testing.T) {
	p, _ := observedProvider(newFakeReader(), nil)
	_, err := p.Provide(NewRules(), NewQProfiles(), rules.NewLanguages(), target("nope"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "failed to read configuration of project nope")
}

func TestProvide_FromSQLiteStore(t *testing.T) {
	s := setupTestStore(t)
	_, err := ImportTOML(s, writeFixture(t, fixture))
	require.NoError(t, err)

	defs, err := s.ReadRules()
	require.NoError(t, err)
	profiles, err := s.ReadQualityProfiles()
	require.NoError(t, err)

	p := NewActiveRulesProvider(s, nil, nil)
	set, err := p.Provide(defs, profiles, rules.NewLanguages(lang("java"), lang("js")), target("my-project"))
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	r, ok := set.Find(rules.NewRuleKey("java", "S100"))
	require.True(t, ok)
	assert.Equal(t, "MAJOR", r.Severity(), "profile severity overrides the definition")
	v, _ := r.Param("format")
	assert.Equal(t, "^[a-z][a-zA-Z0-9]*$", v)
}
