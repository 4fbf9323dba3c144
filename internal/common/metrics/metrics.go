package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FieldValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permit_field_validations_total",
			Help: "Field validations applied to a session, by field and outcome",
		},
		[]string{"field", "status"},
	)

	StaleValidationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permit_field_validations_stale_total",
			Help: "Validation results discarded because a newer input superseded them",
		},
		[]string{"field"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "permit_sessions_active",
			Help: "Number of open application sessions",
		},
	)

	AttachmentsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permit_attachments_total",
			Help: "Attachment batches, by result",
		},
		[]string{"result"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permit_submissions_total",
			Help: "Application submissions, by fishery type and result",
		},
		[]string{"fishery_type", "result"},
	)

	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permit_status_updates_total",
			Help: "Application status changes, by target status",
		},
		[]string{"status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permit_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "permit_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
