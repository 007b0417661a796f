package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookcast_requests_total",
		Help: "API requests handled, by route and status code.",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hookcast_request_duration_seconds",
		Help:    "API request latency, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookcast_deliveries_total",
		Help: "Webhook deliveries forwarded to Discord, by outcome.",
	}, []string{"outcome"})
)
