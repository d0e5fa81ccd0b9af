package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики scheduler'а автопубликации.
var (
	SchedulerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_scheduler_runs_total",
		Help: "Publish phases executed, by trigger and result",
	}, []string{"trigger", "result"})

	ArticlesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_scheduler_articles_published_total",
		Help: "Articles transitioned from scheduled to published",
	}, []string{"trigger"})

	PublishConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_scheduler_publish_conflicts_total",
		Help: "Due articles already published by a concurrent run",
	})

	IntegrityWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_scheduler_integrity_warnings_total",
		Help: "Scheduled articles without scheduled_publish_at",
	})

	SchedulerRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsdesk_scheduler_run_duration_seconds",
		Help:    "Duration of publish phases",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
)

// Метрики HTTP API.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_api_http_requests_total",
		Help: "Total HTTP requests handled by newsdesk api",
	}, []string{"method", "status"})
)

// Метрики notifier'а.
var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_notifier_messages_total",
		Help: "article.published messages consumed, by result",
	}, []string{"result"})
)
