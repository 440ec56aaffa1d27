package analysis

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/rules"
)

// SensorOptimizer skips sensors that cannot contribute to the run.
type SensorOptimizer struct {
	languages   *rules.Languages
	activeRules *rules.ActiveRules
	log         *zap.SugaredLogger
}

// NewSensorOptimizer creates an optimizer over the supported languages and
// the resolved active rules.
func NewSensorOptimizer(langs *rules.Languages, active *rules.ActiveRules, log *zap.SugaredLogger) *SensorOptimizer {
	return &SensorOptimizer{
		languages:   langs,
		activeRules: active,
		log:         logger.Component(log, "optimizer"),
	}
}

// ShouldExecute reports whether a sensor described by d should run. A sensor
// is skipped when none of its languages is supported or when none of its rule
// repositories has an active rule.
func (o *SensorOptimizer) ShouldExecute(d SensorDescriptor) bool {
	if len(d.Languages) > 0 && !o.anyLanguage(d.Languages) {
		o.log.Debugf("'%s' skipped because none of languages %s is supported", d.Name, strings.Join(d.Languages, ", "))
		return false
	}
	if len(d.RuleRepositories) > 0 && !o.anyActiveRule(d.RuleRepositories) {
		o.log.Debugf("'%s' skipped because there is no related rule activated", d.Name)
		return false
	}
	return true
}

func (o *SensorOptimizer) anyLanguage(keys []string) bool {
	for _, k := range keys {
		if _, ok := o.languages.Get(k); ok {
			return true
		}
	}
	return false
}

func (o *SensorOptimizer) anyActiveRule(repositories []string) bool {
	for _, repo := range repositories {
		if len(o.activeRules.FindByRepository(repo)) > 0 {
			return true
		}
	}
	return false
}
