// Package metric holds the prometheus counters recorded while bootstrapping
// an analysis.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/teranos/qlint/errors"
)

const namespace = "qlint"

// Bootstrap contains the bootstrap metrics. A nil *Bootstrap is valid and
// records nothing.
type Bootstrap struct {
	// Extension counters, by container and status (active/declared)
	ExtensionsInstalled *prometheus.CounterVec

	// Active rules resolved per analysis, by language
	RulesResolved *prometheus.CounterVec

	// Plugin compatibility checks, by protocol and result (ok/failed)
	ValidationsTotal *prometheus.CounterVec

	// Installed plugins below their minimum version, by plugin key
	PluginsBelowMinimum *prometheus.CounterVec

	// Sensors run or skipped by the optimizer, by status (executed/skipped)
	SensorsTotal *prometheus.CounterVec
}

// NewBootstrap creates the bootstrap metrics and registers them with reg.
// A nil reg leaves the metrics unregistered, which is what tests want.
func NewBootstrap(reg prometheus.Registerer) (*Bootstrap, error) {
	m := &Bootstrap{
		ExtensionsInstalled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bootstrap",
				Name:      "extensions_total",
				Help:      "Total number of extensions installed into a container",
			},
			[]string{"container", "status"},
		),

		RulesResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "resolved_total",
				Help:      "Total number of active rules resolved from quality profiles",
			},
			[]string{"language"},
		),

		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "plugins",
				Name:      "validations_total",
				Help:      "Total number of plugin compatibility checks",
			},
			[]string{"protocol", "result"},
		),

		PluginsBelowMinimum: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "plugins",
				Name:      "below_minimum_total",
				Help:      "Total number of installed plugins found below their minimum version",
			},
			[]string{"plugin"},
		),

		SensorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "sensors_total",
				Help:      "Total number of sensors executed or skipped",
			},
			[]string{"status"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.ExtensionsInstalled,
		m.RulesResolved,
		m.ValidationsTotal,
		m.PluginsBelowMinimum,
		m.SensorsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register bootstrap metrics")
		}
	}
	return m, nil
}

// RecordExtensions records the outcome of one install pass.
func (m *Bootstrap) RecordExtensions(containerName string, active, declared int) {
	if m == nil {
		return
	}
	m.ExtensionsInstalled.WithLabelValues(containerName, "active").Add(float64(active))
	m.ExtensionsInstalled.WithLabelValues(containerName, "declared").Add(float64(declared))
}

// RecordRules records rules resolved for one language.
func (m *Bootstrap) RecordRules(language string, n int) {
	if m == nil {
		return
	}
	m.RulesResolved.WithLabelValues(language).Add(float64(n))
}

// RecordValidation records a compatibility check and the plugins that failed it.
func (m *Bootstrap) RecordValidation(protocol string, ok bool, failing []string) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.ValidationsTotal.WithLabelValues(protocol, result).Inc()
	for _, key := range failing {
		m.PluginsBelowMinimum.WithLabelValues(key).Inc()
	}
}

// RecordSensor records a sensor that was executed or skipped.
func (m *Bootstrap) RecordSensor(executed bool) {
	if m == nil {
		return
	}
	status := "skipped"
	if executed {
		status = "executed"
	}
	m.SensorsTotal.WithLabelValues(status).Inc()
}
