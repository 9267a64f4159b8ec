package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tcf_submissions_accepted_total",
			Help: "Total number of submissions persisted",
		},
	)

	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcf_submissions_rejected_total",
			Help: "Total number of submissions rejected by the gate",
		},
		[]string{"reason"},
	)

	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcf_dispatch_total",
			Help: "Notification attempts per channel and outcome",
		},
		[]string{"channel", "status"},
	)

	AntiSpamFailOpen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tcf_antispam_failopen_total",
			Help: "Submissions accepted because the anti-spam service could not be reached",
		},
	)

	SubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tcf_submit_duration_seconds",
			Help:    "Duration of the submit pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	LiveFeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tcf_live_feed_clients",
			Help: "Number of connected admin live feed clients",
		},
	)
)
