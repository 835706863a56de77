package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_session",
			Name:      "refreshes_total",
			Help:      "Calls to the token refresh endpoint by outcome.",
		},
		[]string{"outcome"},
	)

	refreshesCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleet_session",
			Name:      "refreshes_coalesced_total",
			Help:      "Refresh requests answered by a token another caller already obtained.",
		},
	)

	terminationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_session",
			Name:      "terminations_total",
			Help:      "Session teardowns by reason.",
		},
		[]string{"reason"},
	)
)
