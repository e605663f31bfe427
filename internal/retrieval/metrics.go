package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retrievalFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal",
			Name:      "retrieval_failures_total",
			Help:      "Similarity lookups or embedding writes that failed and degraded.",
		},
		[]string{"stage"},
	)

	similarResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "journal",
			Name:      "similar_results",
			Help:      "Similar entries returned per lookup.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)
)
