package storecheck

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

var (
	metricPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storecheck",
		Name:      "pages_total",
		Help:      "Pages checked, by platform and outcome (passed, failed, fault).",
	}, []string{"platform", "outcome"})
	metricSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storecheck",
		Name:      "signals_total",
		Help:      "Classified browser signals, by kind and severity.",
	}, []string{"kind", "severity"})
	metricImagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storecheck",
		Name:      "images_failed_total",
		Help:      "Images that failed to load.",
	})
	metricDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storecheck",
		Name:      "navigation_degraded_total",
		Help:      "Navigations that needed the fallback completion criterion.",
	})
	metricDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storecheck",
		Name:      "page_duration_seconds",
		Help:      "Wall time of one page pipeline.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
	})
)

func outcome(r *result.PageTestResult) string {
	switch {
	case r.Error != "":
		return "fault"
	case r.Passed:
		return "passed"
	default:
		return "failed"
	}
}

func observe(r *result.PageTestResult) {
	platform := r.Platform
	if platform == "" {
		platform = "unknown"
	}
	metricPages.WithLabelValues(platform, outcome(r)).Inc()
	metricDuration.Observe(r.Duration.Seconds())
	if r.Degraded {
		metricDegraded.Inc()
	}
	if r.Images != nil {
		metricImagesFailed.Add(float64(r.Images.Failed))
	}
	if r.Signals != nil {
		for _, s := range r.Signals.Signals {
			metricSignals.WithLabelValues(string(s.Kind), string(s.Severity)).Inc()
		}
	}
}
