// Package metrics holds the prometheus collectors of the notification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntakeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "intake_events_total",
		Help:      "Created events seen by the intake, by outcome.",
	}, []string{"outcome"})

	DispatchedTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "dispatch_tasks_total",
		Help:      "Due tasks processed by the dispatcher, by outcome.",
	}, []string{"outcome"})

	PushMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "push_messages_total",
		Help:      "Push messages handed to the transport, by ticket status.",
	}, []string{"status"})

	PushChunkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "push_chunk_errors_total",
		Help:      "Transport calls that failed as a whole.",
	})

	JanitorDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "janitor_deletions_total",
		Help:      "Records and blobs removed by the janitors.",
	}, []string{"kind"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "notifier",
		Name:      "job_duration_seconds",
		Help:      "Wall time of one job invocation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
)
