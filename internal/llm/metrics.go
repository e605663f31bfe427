package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "journal",
		Name:      "llm_request_duration_seconds",
		Help:      "Latency of generative backend calls including retries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
