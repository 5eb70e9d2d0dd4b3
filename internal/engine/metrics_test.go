package engine

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	n := New(testSettings(10), WithMetrics(m))
	_, err = n.Nest(context.Background(), partsOf(5, 4, 3, 3, 3, 2))
	require.NoError(t, err)
	_, err = n.Nest(context.Background(), partsOf(6, 6))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("optimal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tubes), "gauge holds the last run")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.gap))
	assert.Positive(t, testutil.ToFloat64(m.nodes))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_BoundedGap(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	settings := testSettings(10)
	settings.MaxNodes = 1
	_, err = New(settings, WithMetrics(m)).Nest(context.Background(), partsOf(5, 4, 3, 3, 3, 2))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("bounded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gap))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		_, _ = New(testSettings(10), WithMetrics(m)).Nest(context.Background(), partsOf(1))
	})
}
