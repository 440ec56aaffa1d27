package builtin

import (
	"go.uber.org/zap"

	"github.com/teranos/qlint/analysis"
	"github.com/teranos/qlint/container"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/plugin"
)

// RulesSummarySensor logs how many rules are active per supported language.
type RulesSummarySensor struct {
	log *zap.SugaredLogger

	counts map[string]int
}

func newRulesSummarySensor(c *container.Container) (*RulesSummarySensor, error) {
	return &RulesSummarySensor{log: logger.Component(c.Logger(), "summary")}, nil
}

// Roles implements plugin.Extension.
func (s *RulesSummarySensor) Roles() plugin.Role { return analysisRoles }

// Describe implements analysis.Sensor.
func (s *RulesSummarySensor) Describe() analysis.SensorDescriptor {
	return analysis.SensorDescriptor{Name: "Active rules summary"}
}

// Execute implements analysis.Sensor.
func (s *RulesSummarySensor) Execute(ctx *analysis.SensorContext) error {
	s.counts = make(map[string]int)
	for _, lang := range ctx.Languages.Keys() {
		n := len(ctx.ActiveRules.FindByLanguage(lang))
		s.counts[lang] = n
		s.log.Debugw("Active rules", logger.FieldLanguage, lang, logger.FieldRuleCount, n)
	}
	return nil
}

// Counts returns the rule count per language of the last execution.
func (s *RulesSummarySensor) Counts() map[string]int {
	return s.counts
}
