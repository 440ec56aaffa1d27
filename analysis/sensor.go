package analysis

import (
	"go.uber.org/zap"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/plugin"
	"github.com/teranos/qlint/rules"
)

// SensorDescriptor tells the optimizer what a sensor needs to be worth running.
type SensorDescriptor struct {
	Name string

	// Languages the sensor analyzes; empty means any
	Languages []string

	// RuleRepositories whose rules the sensor raises; empty means any
	RuleRepositories []string
}

// Sensor is an analysis extension producing issues.
type Sensor interface {
	plugin.Extension
	Describe() SensorDescriptor
	Execute(ctx *SensorContext) error
}

// Issue is a finding raised by a sensor.
type Issue struct {
	Rule     rules.RuleKey
	Severity string
	Message  string
	Path     string
	Line     int
}

// IssueListener receives the issues of a run.
type IssueListener interface {
	Handle(issue Issue)
}

// IssueListenerFunc adapts a function to IssueListener.
type IssueListenerFunc func(issue Issue)

// Handle implements IssueListener.
func (f IssueListenerFunc) Handle(issue Issue) { f(issue) }

// SensorContext is what a sensor sees of the analysis scope.
type SensorContext struct {
	Config      *Configuration
	ActiveRules *rules.ActiveRules
	Languages   *rules.Languages

	listener IssueListener
	log      *zap.SugaredLogger
	reported int
}

// NewSensorContext creates a context reporting to listener, which may be nil.
func NewSensorContext(cfg *Configuration, active *rules.ActiveRules, langs *rules.Languages, listener IssueListener, log *zap.SugaredLogger) *SensorContext {
	return &SensorContext{
		Config:      cfg,
		ActiveRules: active,
		Languages:   langs,
		listener:    listener,
		log:         logger.Component(log, "sensor"),
	}
}

// Report forwards an issue raised on an active rule. Issues on inactive rules
// are dropped. An empty severity is taken from the active rule.
func (sc *SensorContext) Report(issue Issue) error {
	if issue.Rule == (rules.RuleKey{}) {
		return errors.Wrap(errors.ErrInvalidRequest, "issue has no rule key")
	}
	ar, ok := sc.ActiveRules.Find(issue.Rule)
	if !ok {
		sc.log.Debugw("Dropping issue of inactive rule", logger.FieldRuleKey, issue.Rule.String())
		return nil
	}
	if issue.Severity == "" {
		issue.Severity = ar.Severity()
	}
	sc.reported++
	if sc.listener != nil {
		sc.listener.Handle(issue)
	}
	return nil
}

// Reported returns the number of issues forwarded to the listener.
func (sc *SensorContext) Reported() int {
	return sc.reported
}
