package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patrol_sessions_created_total",
		Help: "Analysis sessions created",
	})

	tracesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patrol_traces_total",
		Help: "Baseline traces by outcome (completed, cycle, error)",
	}, []string{"outcome"})

	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patrol_searches_total",
		Help: "Obstruction searches by status (ok, error)",
	}, []string{"status"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patrol_search_duration_seconds",
		Help:    "Wall time of obstruction searches",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	})

	searchCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patrol_search_candidates",
		Help:    "Candidate positions evaluated per search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)
