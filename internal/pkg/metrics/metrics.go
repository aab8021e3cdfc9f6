package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_bets_total",
		Help: "The total number of bets accepted",
	}, []string{"strategy", "outcome"})

	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_claims_total",
		Help: "The total number of claim attempts",
	}, []string{"status"})

	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_settlements_total",
		Help: "Markets scored or cancelled",
	}, []string{"strategy", "terminal"})

	Rejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_rejects_total",
		Help: "Operations rejected before any mutation",
	}, []string{"reason"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settler_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
