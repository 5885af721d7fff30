// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReminderDispatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_dispatch_runs_total",
			Help: "Total number of reminder dispatch invocations",
		},
		[]string{"result"},
	)

	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminder emails sent",
		},
	)

	RemindersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_skipped_total",
			Help: "Total number of due tasks skipped per reason",
		},
		[]string{"reason"},
	)

	ReminderSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_send_failures_total",
			Help: "Total number of reminder delivery failures",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"route", "method", "status"},
	)

	ManagerNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manager_notifications_total",
			Help: "Total number of manager notifications per channel and result",
		},
		[]string{"channel", "result"},
	)

	DiseaseSearchCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disease_search_cache_total",
			Help: "Disease search cache lookups per outcome",
		},
		[]string{"outcome"},
	)
)
