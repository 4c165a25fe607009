// Package metrics holds the Prometheus instruments for the performance engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the engine's Prometheus collectors behind one registry.
type Registry struct {
	reg *prometheus.Registry

	Recomputes        *prometheus.CounterVec
	RecomputeFailures *prometheus.CounterVec
	RecomputeSeconds  prometheus.Histogram
	HistoryRecorded   prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	recomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_metric_recomputes_total",
		Help: "Vendor metric recomputations, by trigger.",
	}, []string{"trigger"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_metric_recompute_failures_total",
		Help: "Vendor metric recomputations that failed, by trigger.",
	}, []string{"trigger"})
	seconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vms_metric_recompute_seconds",
		Help:    "Wall time of a single vendor metric recomputation.",
		Buckets: prometheus.DefBuckets,
	})
	history := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vms_history_snapshots_total",
		Help: "Historical performance snapshots written.",
	})

	r.MustRegister(recomputes, failures, seconds, history)
	return &Registry{
		reg:               r,
		Recomputes:        recomputes,
		RecomputeFailures: failures,
		RecomputeSeconds:  seconds,
		HistoryRecorded:   history,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
