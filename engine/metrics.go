/*
metrics.go - Prometheus instrumentation for engine operations

PURPOSE:
  Counters for the hot paths: discount calculations by mechanic, cache
  effectiveness, claim outcomes, detected conflicts by severity. Exposed
  via promhttp in cmd/engine when a metrics address is configured.
*/
package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promo",
		Name:      "calculations_total",
		Help:      "Discount calculations performed, by mechanic and outcome.",
	}, []string{"mechanic", "outcome"})

	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promo",
		Name:      "cache_hits_total",
		Help:      "Result cache lookups, by cache and hit/miss.",
	}, []string{"cache", "result"})

	claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promo",
		Name:      "claims_total",
		Help:      "Processed claims, by outcome.",
	}, []string{"outcome"})

	conflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promo",
		Name:      "conflicts_total",
		Help:      "Conflicts detected, by category and severity.",
	}, []string{"category", "severity"})

	forecastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promo",
		Name:      "forecasts_total",
		Help:      "Forecast computations, by outcome.",
	}, []string{"outcome"})
)
