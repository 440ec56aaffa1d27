package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/metric"
)

// ExecutionSummary counts the sensors of a run.
type ExecutionSummary struct {
	Executed int
	Skipped  int
	Issues   int
}

// SensorsExecutor runs the active sensors of an analysis scope in
// installation order.
type SensorsExecutor struct {
	sensors   []Sensor
	optimizer *SensorOptimizer
	context   *SensorContext
	metrics   *metric.Bootstrap
	log       *zap.SugaredLogger

	summary ExecutionSummary
}

// NewSensorsExecutor creates an executor. metrics may be nil.
func NewSensorsExecutor(sensors []Sensor, optimizer *SensorOptimizer, sc *SensorContext, metrics *metric.Bootstrap, log *zap.SugaredLogger) *SensorsExecutor {
	return &SensorsExecutor{
		sensors:   sensors,
		optimizer: optimizer,
		context:   sc,
		metrics:   metrics,
		log:       logger.Component(log, "sensors"),
	}
}

// Execute runs every sensor the optimizer keeps. The first failing sensor
// aborts the run. Cancellation is checked between sensors.
func (e *SensorsExecutor) Execute(ctx context.Context) (ExecutionSummary, error) {
	for _, s := range e.sensors {
		if err := ctx.Err(); err != nil {
			return e.summary, errors.Wrap(err, "analysis cancelled")
		}

		d := s.Describe()
		if !e.optimizer.ShouldExecute(d) {
			e.summary.Skipped++
			e.metrics.RecordSensor(false)
			continue
		}

		e.log.Debugf("Execute Sensor: %s", d.Name)
		if err := s.Execute(e.context); err != nil {
			return e.summary, errors.Wrapf(err, "sensor %s failed", d.Name)
		}
		e.summary.Executed++
		e.metrics.RecordSensor(true)
	}

	e.summary.Issues = e.context.Reported()
	return e.summary, nil
}

// Summary returns the counts of the last Execute.
func (e *SensorsExecutor) Summary() ExecutionSummary {
	return e.summary
}
