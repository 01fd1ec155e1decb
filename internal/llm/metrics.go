package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decree_ai_requests_total",
			Help: "Provider attempts by provider and outcome.",
		},
		[]string{"provider", "status"}, // status: success, error, timeout, invalid
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decree_ai_request_duration_seconds",
			Help:    "Duration of provider attempts.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 40, 60},
		},
		[]string{"provider"},
	)
	rateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decree_rate_limit_rejections_total",
			Help: "Outbound calls refused by the shared request budget.",
		},
	)
	chainFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decree_ai_chain_exhausted_total",
			Help: "Generations where the primary and every backup failed.",
		},
	)
)
