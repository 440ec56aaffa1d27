package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBootstrap_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewBootstrap(reg)
	require.NoError(t, err)

	m.RecordExtensions("analysis", 3, 1)
	m.RecordRules("java", 12)
	m.RecordValidation("json", false, []string{"java"})
	m.RecordSensor(true)
	m.RecordSensor(false)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ExtensionsInstalled.WithLabelValues("analysis", "active")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExtensionsInstalled.WithLabelValues("analysis", "declared")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.RulesResolved.WithLabelValues("java")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("json", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PluginsBelowMinimum.WithLabelValues("java")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SensorsTotal.WithLabelValues("executed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SensorsTotal.WithLabelValues("skipped")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestNewBootstrap_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewBootstrap(reg)
	require.NoError(t, err)

	_, err = NewBootstrap(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register bootstrap metrics")
}

func TestNilBootstrapIsNoop(t *testing.T) {
	var m *Bootstrap
	assert.NotPanics(t, func() {
		m.RecordExtensions("global", 1, 1)
		m.RecordRules("java", 1)
		m.RecordValidation("text", true, nil)
		m.RecordSensor(true)
	})
}
