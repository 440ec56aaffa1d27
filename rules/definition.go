package rules

// Rule severities, lowest first
const (
	SeverityInfo     = "INFO"
	SeverityMinor    = "MINOR"
	SeverityMajor    = "MAJOR"
	SeverityCritical = "CRITICAL"
	SeverityBlocker  = "BLOCKER"
)

// Definition is the profile-independent metadata of a rule.
type Definition struct {
	Key         RuleKey
	Name        string
	Language    string
	Severity    string // default severity
	Type        string // CODE_SMELL, BUG, VULNERABILITY, ...
	Description string
	TemplateKey string

	// Params maps parameter keys to their default values
	Params map[string]string
}

// Definitions indexes rule definitions by key.
type Definitions struct {
	byKey map[RuleKey]*Definition
}

// NewDefinitions indexes defs. A later definition replaces an earlier one
// with the same key.
func NewDefinitions(defs ...*Definition) *Definitions {
	d := &Definitions{byKey: make(map[RuleKey]*Definition, len(defs))}
	for _, def := range defs {
		if def != nil {
			d.byKey[def.Key] = def
		}
	}
	return d
}

// Get returns the definition of key.
func (d *Definitions) Get(key RuleKey) (*Definition, bool) {
	def, ok := d.byKey[key]
	return def, ok
}

// Len returns the number of definitions.
func (d *Definitions) Len() int {
	return len(d.byKey)
}
