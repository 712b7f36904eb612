package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// syncTotal counts project syncs.
	// Labels: outcome (fetched, cache_hit, fallback_cache, fallback_store, unreachable, aborted)
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "projects",
		Name:      "sync_total",
		Help:      "Project list requests by outcome",
	}, []string{"outcome"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "intake",
		Subsystem: "projects",
		Name:      "sync_duration_seconds",
		Help:      "Time spent fetching and merging ClickUp lists",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// classificationsTotal counts project classifications.
	// Labels: source (model, fallback), result (stored, store_error)
	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "classifier",
		Name:      "classifications_total",
		Help:      "Project classifications by source and result",
	}, []string{"source", "result"})

	classificationPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "classifier",
		Name:      "passes_total",
		Help:      "Background classification passes by outcome",
	}, []string{"outcome"})

	// llmLatency measures chat completion latency.
	// Labels: purpose (classify, analyze, refine), status (success, error)
	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "intake",
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "Chat completion latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"purpose", "status"})

	// rateLimited counts rejected requests.
	// Labels: tier (ai, clickup, general)
	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "ratelimit",
		Name:      "rejected_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"tier"})

	classificationBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "intake",
		Subsystem: "classifier",
		Name:      "backlog_projects",
		Help:      "Stored projects that are unclassified or stale",
	})

	prunedAnalyses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "maintenance",
		Name:      "pruned_analyses_total",
		Help:      "Analysis history rows removed by retention",
	})
)

// RecordSync records the outcome of one GetProjects call.
func RecordSync(outcome string) {
	syncTotal.WithLabelValues(outcome).Inc()
}

// ObserveSyncDuration records how long a fetch-and-merge took.
func ObserveSyncDuration(seconds float64) {
	syncDuration.Observe(seconds)
}

// RecordClassification records one classified project.
func RecordClassification(fallback bool, stored bool) {
	source := "model"
	if fallback {
		source = "fallback"
	}
	result := "stored"
	if !stored {
		result = "store_error"
	}
	classificationsTotal.WithLabelValues(source, result).Inc()
}

// RecordPass records a finished background pass.
func RecordPass(outcome string) {
	classificationPasses.WithLabelValues(outcome).Inc()
}

// ObserveLLM records the latency of a chat completion.
func ObserveLLM(purpose string, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	llmLatency.WithLabelValues(purpose, status).Observe(seconds)
}

// RecordRateLimited records a request rejected in the given tier.
func RecordRateLimited(tier string) {
	rateLimited.WithLabelValues(tier).Inc()
}

// SetBacklog records how many projects still await classification.
func SetBacklog(n int) {
	classificationBacklog.Set(float64(n))
}

// AddPruned adds to the pruned history counter.
func AddPruned(n int64) {
	if n > 0 {
		prunedAnalyses.Add(float64(n))
	}
}

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
