package listing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_listing",
			Name:      "fetches_total",
			Help:      "Fetches committed by list controllers, by outcome.",
		},
		[]string{"resource", "outcome"},
	)

	staleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_listing",
			Name:      "stale_responses_total",
			Help:      "Fetch results discarded because a newer fetch had been issued.",
		},
		[]string{"resource"},
	)
)
