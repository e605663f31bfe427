package insight

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Name:      "insight_fallbacks_total",
		Help:      "Generated-text requests answered from the built-in fallback content.",
	},
	[]string{"operation"},
)
