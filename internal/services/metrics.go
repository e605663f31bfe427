package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal",
			Name:      "entries_submitted_total",
			Help:      "Journal entries saved, by text sentiment.",
		},
		[]string{"sentiment"},
	)

	enrichmentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal",
			Name:      "enrichment_failures_total",
			Help:      "Enrichment steps that failed after an entry was saved.",
		},
		[]string{"step"},
	)
)
