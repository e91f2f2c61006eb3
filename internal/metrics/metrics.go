// Package metrics exposes Prometheus collectors for the search engine.
// Everything is registered on the default registry and served by the
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluations counts candidate fitness evaluations, including the
	// ones that failed and were assigned the sentinel fitness.
	Evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swarmtune",
		Name:      "evaluations_total",
		Help:      "Candidate fitness evaluations performed.",
	})

	// EvaluationFailures counts candidates whose estimator could not be
	// constructed or fitted.
	EvaluationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swarmtune",
		Name:      "evaluation_failures_total",
		Help:      "Candidate evaluations that failed and scored the worst sentinel.",
	})

	// CacheHits counts evaluations answered from the candidate score
	// cache without refitting.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swarmtune",
		Name:      "evaluation_cache_hits_total",
		Help:      "Candidate evaluations served from the score cache.",
	})

	// Generations counts completed evaluate/update cycles across all
	// searches.
	Generations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swarmtune",
		Name:      "generations_total",
		Help:      "Completed swarm generations.",
	})

	// SearchesRunning tracks searches currently in their generational
	// loop.
	SearchesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "swarmtune",
		Name:      "searches_running",
		Help:      "Searches currently running.",
	})

	// BestScore reports the best cross-validated score per search job.
	BestScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "swarmtune",
		Name:      "best_score",
		Help:      "Best cross-validated score seen by a search job.",
	}, []string{"job"})
)
