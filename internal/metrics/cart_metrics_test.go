package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()

	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestCartMetricsRecordOp(t *testing.T) {
	m := newCartMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOp("add_item", nil)
	m.RecordOp("add_item", nil)
	m.RecordOp("add_item", errors.New("boom"))
	m.RecordOp("remove_item", nil)

	require.Equal(t, 2.0, counterVecValue(t, m.cartOps, "add_item", "ok"))
	require.Equal(t, 1.0, counterVecValue(t, m.cartOps, "add_item", "error"))
	require.Equal(t, 1.0, counterVecValue(t, m.cartOps, "remove_item", "ok"))
}

func TestCartMetricsConflictCounters(t *testing.T) {
	m := newCartMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordVersionConflict()
	m.RecordVersionConflict()
	m.RecordConflictSurfaced()
	m.RecordItemMerge()

	require.Equal(t, 2.0, counterValue(t, m.versionConflicts))
	require.Equal(t, 1.0, counterValue(t, m.conflictsSurfaced))
	require.Equal(t, 1.0, counterValue(t, m.itemMerges))
}

func TestDispatchMetricsRecordEmail(t *testing.T) {
	m := newDispatchMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordEmail("customer", true)
	m.RecordEmail("admin", false)
	m.RecordDispatch("partially_sent")
	m.RecordDispatchDuration(120 * time.Millisecond)

	require.Equal(t, 1.0, counterVecValue(t, m.emails, "customer", "sent"))
	require.Equal(t, 1.0, counterVecValue(t, m.emails, "admin", "failed"))
	require.Equal(t, 1.0, counterVecValue(t, m.dispatches, "partially_sent"))

	var metric dto.Metric
	require.NoError(t, m.dispatchDuration.Write(&metric))
	require.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
}

func TestMetricsReRegistrationReturnsExisting(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newCartMetricsWithRegisterer(registry)
	second := newCartMetricsWithRegisterer(registry)

	first.RecordVersionConflict()
	second.RecordVersionConflict()

	require.Equal(t, 2.0, counterValue(t, second.versionConflicts))
}
