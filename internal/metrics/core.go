// Package metrics provides Prometheus metrics for lease, distribution and response operations.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation label values.
const (
	OpLock       = "lock"
	OpUnlock     = "unlock"
	OpComplete   = "complete"
	OpSweep      = "sweep"
	OpAssign     = "assign"
	OpInitialize = "initialize"
	OpUpdate     = "update"
	OpSubmit     = "submit"
	OpMarkDone   = "mark_completed"
	OpSummarize  = "summarize"
)

// Status label values.
const (
	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusError    = "error"
)

// CoreMetrics holds the coordination core collectors. A nil *CoreMetrics records nothing.
type CoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	leasesSweptTotal       prometheus.Counter
	teamSheetsAssigned     prometheus.Counter
	teamSheetsCompleted    prometheus.Counter
	distributionFailures   prometheus.Counter
	notificationsTotal     *prometheus.CounterVec
	notificationsDropped   prometheus.Counter
	notificationErrors     prometheus.Counter
	notificationQueueDepth prometheus.Gauge

	collectors []prometheus.Collector
}

// NewCoreMetrics creates and registers the core metrics.
func NewCoreMetrics(registry *prometheus.Registry) (*CoreMetrics, error) {
	m := &CoreMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register core metrics: %w", err)
	}
	return m, nil
}

func (m *CoreMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_operations_total",
			Help: "Total number of core operations by operation and status",
		},
		[]string{"operation", "status"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisory_operation_duration_seconds",
			Help:    "Time taken by core operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"operation"},
	)

	m.leasesSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_leases_swept_total",
		Help: "Expired leases cleared by the sweeper",
	})
	m.teamSheetsAssigned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_team_sheets_assigned_total",
		Help: "Team sheets created by distribution",
	})
	m.teamSheetsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_team_sheets_completed_total",
		Help: "Team sheets moved to completed",
	})
	m.distributionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_distribution_failures_total",
		Help: "Per-team assignment failures inside distribution batches",
	})

	m.notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_notifications_total",
			Help: "Notifications delivered to the sink by kind",
		},
		[]string{"kind"},
	)
	m.notificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_notifications_dropped_total",
		Help: "Notifications dropped because the dispatch buffer was full",
	})
	m.notificationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_notification_errors_total",
		Help: "Notifications the sink failed to deliver",
	})
	m.notificationQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "advisory_notification_queue_depth",
		Help: "Notifications waiting in the dispatch buffer",
	})

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.leasesSweptTotal,
		m.teamSheetsAssigned,
		m.teamSheetsCompleted,
		m.distributionFailures,
		m.notificationsTotal,
		m.notificationsDropped,
		m.notificationErrors,
		m.notificationQueueDepth,
	}
}

// Describe implements the Collector interface
func (m *CoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation counts one operation and observes its duration.
func (m *CoreMetrics) RecordOperation(operation, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// AddLeasesSwept counts reclaimed leases.
func (m *CoreMetrics) AddLeasesSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.leasesSweptTotal.Add(float64(n))
}

// IncTeamSheetsAssigned counts a newly created team sheet.
func (m *CoreMetrics) IncTeamSheetsAssigned() {
	if m == nil {
		return
	}
	m.teamSheetsAssigned.Inc()
}

// IncTeamSheetsCompleted counts a team sheet transition to completed.
func (m *CoreMetrics) IncTeamSheetsCompleted() {
	if m == nil {
		return
	}
	m.teamSheetsCompleted.Inc()
}

// AddDistributionFailures counts teams a batch could not assign.
func (m *CoreMetrics) AddDistributionFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.distributionFailures.Add(float64(n))
}

// IncNotification counts a delivered notification.
func (m *CoreMetrics) IncNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind).Inc()
}

// IncNotificationDropped counts a notification lost to a full buffer.
func (m *CoreMetrics) IncNotificationDropped() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
}

// IncNotificationError counts a sink failure.
func (m *CoreMetrics) IncNotificationError() {
	if m == nil {
		return
	}
	m.notificationErrors.Inc()
}

// SetNotificationQueueDepth reports the dispatch buffer length.
func (m *CoreMetrics) SetNotificationQueueDepth(n int) {
	if m == nil {
		return
	}
	m.notificationQueueDepth.Set(float64(n))
}
