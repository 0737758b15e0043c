package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var testMetrics = NewConfigMetrics("config_test")

func TestCollector_RecordsFallbacks(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.FallbacksTotal.WithLabelValues("port"))
	t.Setenv("TEST_COLLECT_PORT", "not-a-port")
	t.Setenv("TEST_COLLECT_NAME", "catalog")

	c := NewCollector(nil, testMetrics)
	port := Field(c, "port", LoadInt("TEST_COLLECT_PORT", 9090, nil))
	name := Field(c, "name", LoadString("TEST_COLLECT_NAME", "x", nil))
	c.Finish()

	assert.Equal(t, 9090, port)
	assert.Equal(t, "catalog", name)
	assert.True(t, c.FallbackApplied())
	assert.Len(t, c.Warnings(), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.FallbacksTotal.WithLabelValues("port")))
	assert.Equal(t, float64(1), testutil.ToFloat64(testMetrics.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(testMetrics.LoadTimestamp), float64(0))
}

func TestCollector_CleanLoadClearsFallbackGauge(t *testing.T) {
	c := NewCollector(nil, testMetrics)
	Field(c, "name", LoadString("TEST_COLLECT_UNSET", "x", nil))
	c.Finish()

	assert.False(t, c.FallbackApplied())
	assert.Equal(t, float64(0), testutil.ToFloat64(testMetrics.FallbackActive))
}

func TestCollector_NilMetrics(t *testing.T) {
	t.Setenv("TEST_COLLECT_BOOL", "perhaps")

	c := NewCollector(nil, nil)
	v := Field(c, "flag", LoadBool("TEST_COLLECT_BOOL", true))
	c.Finish()

	assert.True(t, v)
	assert.True(t, c.FallbackApplied())
}
