package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_client",
			Name:      "requests_total",
			Help:      "HTTP exchanges by method and status code (\"error\" when no response).",
		},
		[]string{"method", "code"},
	)

	authRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_client",
			Name:      "auth_retries_total",
			Help:      "Requests that hit 401 and attempted a token refresh, by outcome.",
		},
		[]string{"outcome"},
	)
)
