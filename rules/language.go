package rules

import "sort"

// Language is a programming language an analysis can handle.
type Language interface {
	Key() string
	Name() string
}

// Languages are the languages supported by the installed extensions.
type Languages struct {
	byKey map[string]Language
}

// NewLanguages indexes langs by key; the first language with a key wins.
func NewLanguages(langs ...Language) *Languages {
	l := &Languages{byKey: make(map[string]Language, len(langs))}
	for _, lang := range langs {
		if lang == nil {
			continue
		}
		if _, exists := l.byKey[lang.Key()]; !exists {
			l.byKey[lang.Key()] = lang
		}
	}
	return l
}

// Get returns the language with key.
func (l *Languages) Get(key string) (Language, bool) {
	lang, ok := l.byKey[key]
	return lang, ok
}

// Keys returns the supported language keys in sorted order.
func (l *Languages) Keys() []string {
	keys := make([]string, 0, len(l.byKey))
	for k := range l.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of supported languages.
func (l *Languages) Len() int {
	return len(l.byKey)
}
