package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCoreMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewCoreMetrics(reg)
	require.NoError(t, err)

	m.RecordOperation(OpLock, StatusSuccess, 3*time.Millisecond)
	m.RecordOperation(OpLock, StatusConflict, time.Millisecond)
	m.RecordOperation(OpLock, StatusConflict, time.Millisecond)
	m.AddLeasesSwept(4)
	m.AddLeasesSwept(0)
	m.IncNotificationDropped()

	require.InDelta(t, 2, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpLock, StatusConflict)), 0)
	require.InDelta(t, 4, testutil.ToFloat64(m.leasesSweptTotal), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.notificationsDropped), 0)

	_, err = NewCoreMetrics(reg)
	require.Error(t, err)
}

func TestNilCoreMetricsIsSafe(t *testing.T) {
	var m *CoreMetrics
	require.NotPanics(t, func() {
		m.RecordOperation(OpSweep, StatusError, time.Second)
		m.AddLeasesSwept(1)
		m.IncTeamSheetsAssigned()
		m.IncTeamSheetsCompleted()
		m.AddDistributionFailures(2)
		m.IncNotification("x")
		m.IncNotificationDropped()
		m.IncNotificationError()
		m.SetNotificationQueueDepth(3)
	})
}
