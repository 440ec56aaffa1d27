package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/qlint/errors"
)

func javaRule(key, lang string) *Definition {
	return &Definition{
		Key:      NewRuleKey("java", key),
		Name:     "Rule " + key,
		Language: lang,
		Severity: SeverityMajor,
		Params:   map[string]string{"max": "10", "format": "^[a-z]+$"},
	}
}

func TestParseRuleKey(t *testing.T) {
	tests := []struct {
		in      string
		want    RuleKey
		wantErr bool
	}{
		{in: "java:S100", want: RuleKey{Repository: "java", Rule: "S100"}},
		{in: "common-java:DuplicatedBlocks", want: RuleKey{Repository: "common-java", Rule: "DuplicatedBlocks"}},
		{in: "xml:a:b", want: RuleKey{Repository: "xml", Rule: "a:b"}},
		{in: "java", wantErr: true},
		{in: ":S100", wantErr: true},
		{in: "java:", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRuleKey(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestActiveRule_Overrides(t *testing.T) {
	def := javaRule("S100", "java")

	t.Run("defaults", func(t *testing.T) {
		r := NewActiveRule(def, "", nil)
		assert.Equal(t, SeverityMajor, r.Severity())
		v, ok := r.Param("max")
		assert.True(t, ok)
		assert.Equal(t, "10", v)
		assert.Equal(t, def.Params, r.Params())
	})

	t.Run("profile overrides", func(t *testing.T) {
		r := NewActiveRule(def, SeverityBlocker, map[string]string{"max": "3", "extra": "x"})
		assert.Equal(t, SeverityBlocker, r.Severity())
		v, _ := r.Param("max")
		assert.Equal(t, "3", v)
		assert.Equal(t, map[string]string{"max": "3", "format": "^[a-z]+$", "extra": "x"}, r.Params())

		_, ok := r.Param("missing")
		assert.False(t, ok)
		assert.Equal(t, "10", def.Params["max"], "definition defaults are untouched")
	})

	t.Run("definition without params", func(t *testing.T) {
		r := NewActiveRule(&Definition{Key: NewRuleKey("js", "S1")}, "", map[string]string{"a": "b"})
		assert.Equal(t, map[string]string{"a": "b"}, r.Params())
	})
}

func TestActiveRules(t *testing.T) {
	s100 := NewActiveRule(javaRule("S100", "java"), "", nil)
	s1 := NewActiveRule(javaRule("S1", "java"), "", nil)
	js := NewActiveRule(&Definition{Key: NewRuleKey("javascript", "S1"), Language: "js"}, "", nil)

	set, err := NewActiveRules([]*ActiveRule{s100, js, s1})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	got, ok := set.Find(NewRuleKey("java", "S1"))
	assert.True(t, ok)
	assert.Same(t, s1, got)
	_, ok = set.Find(NewRuleKey("java", "S2"))
	assert.False(t, ok)

	all := set.FindAll()
	require.Len(t, all, 3)
	assert.Equal(t, "java:S1", all[0].Key().String())
	assert.Equal(t, "java:S100", all[1].Key().String())
	assert.Equal(t, "javascript:S1", all[2].Key().String())

	assert.Len(t, set.FindByRepository("java"), 2)
	assert.Len(t, set.FindByLanguage("js"), 1)
	assert.Empty(t, set.FindByLanguage("py"))

	all[0] = nil
	assert.NotNil(t, set.FindAll()[0], "FindAll returns a copy")
}

func TestActiveRules_Empty(t *testing.T) {
	set, err := NewActiveRules(nil)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
	assert.Empty(t, set.FindAll())
}

func TestActiveRules_Duplicate(t *testing.T) {
	def := javaRule("S100", "java")
	_, err := NewActiveRules([]*ActiveRule{NewActiveRule(def, "", nil), NewActiveRule(def, SeverityMinor, nil)})
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Contains(t, err.Error(), "java:S100")
}

func TestDefinitions(t *testing.T) {
	defs := NewDefinitions(javaRule("S100", "java"), nil, javaRule("S1", "java"))
	assert.Equal(t, 2, defs.Len())

	def, ok := defs.Get(NewRuleKey("java", "S100"))
	require.True(t, ok)
	assert.Equal(t, "Rule S100", def.Name)

	_, ok = defs.Get(NewRuleKey("java", "S2"))
	assert.False(t, ok)
}

type lang struct{ key, name string }

func (l lang) Key() string  { return l.key }
func (l lang) Name() string { return l.name }

func TestLanguages(t *testing.T) {
	langs := NewLanguages(lang{"py", "Python"}, nil, lang{"java", "Java"}, lang{"java", "Other Java"})
	assert.Equal(t, 2, langs.Len())
	assert.Equal(t, []string{"java", "py"}, langs.Keys())

	l, ok := langs.Get("java")
	require.True(t, ok)
	assert.Equal(t, "Java", l.Name())

	_, ok = langs.Get("cobol")
	assert.False(t, ok)
}
