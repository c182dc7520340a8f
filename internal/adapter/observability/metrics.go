package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of generator requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Generator request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Estimated tokens exchanged with the generator",
		},
		[]string{"provider", "kind"},
	)

	ClassifierFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_classifier_fallbacks_total",
			Help: "Classifier invocations that used the call site's safe default",
		},
		[]string{"call_site", "reason"},
	)
	StageTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_stage_transitions_total",
			Help: "Interview stage transitions",
		},
		[]string{"from", "to"},
	)
	InterviewsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviews_started_total",
			Help: "Interview sessions created",
		},
	)
	InterviewsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviews_completed_total",
			Help: "Interview sessions that reached wrapup, by end reason",
		},
		[]string{"reason"},
	)
	OverallRatingHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_overall_rating",
			Help:    "Distribution of final overall ratings ([1,10])",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
	PersistenceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_persistence_failures_total",
			Help: "Failed persistence writes by artifact",
		},
		[]string{"artifact"},
	)

	PlannerBucketsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_buckets_total",
			Help: "Question buckets generated by outcome",
		},
		[]string{"outcome"},
	)

	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"type"},
	)
	JobsProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobs_processing",
			Help: "Number of jobs currently processing",
		},
		[]string{"type"},
	)
	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_completed_total",
			Help: "Total number of jobs completed",
		},
		[]string{"type"},
	)
	JobsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_failed_total",
			Help: "Total number of jobs failed",
		},
		[]string{"type"},
	)
)

// InitMetrics registers every collector with the default registry.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AIRequestsTotal,
		AIRequestDuration,
		AITokensTotal,
		ClassifierFallbacksTotal,
		StageTransitionsTotal,
		InterviewsStartedTotal,
		InterviewsCompletedTotal,
		OverallRatingHistogram,
		PersistenceFailuresTotal,
		PlannerBucketsTotal,
		JobsEnqueuedTotal,
		JobsProcessing,
		JobsCompletedTotal,
		JobsFailedTotal,
	)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

func EnqueueJob(jobType string) {
	JobsEnqueuedTotal.WithLabelValues(jobType).Inc()
}

func StartProcessingJob(jobType string) {
	JobsProcessing.WithLabelValues(jobType).Inc()
}

func CompleteJob(jobType string) {
	JobsProcessing.WithLabelValues(jobType).Dec()
	JobsCompletedTotal.WithLabelValues(jobType).Inc()
}

func FailJob(jobType string) {
	JobsProcessing.WithLabelValues(jobType).Dec()
	JobsFailedTotal.WithLabelValues(jobType).Inc()
}

// ObserveClassifierFallback counts a safe default applied at a call site.
func ObserveClassifierFallback(callSite, reason string) {
	ClassifierFallbacksTotal.WithLabelValues(callSite, reason).Inc()
}

// ObserveStageTransition counts a move between interview stages.
func ObserveStageTransition(from, to string) {
	StageTransitionsTotal.WithLabelValues(from, to).Inc()
}

// ObserveInterviewCompleted records the end reason and, when in range, the rating.
func ObserveInterviewCompleted(reason string, overallRating float64) {
	InterviewsCompletedTotal.WithLabelValues(reason).Inc()
	if overallRating >= 1 && overallRating <= 10 {
		OverallRatingHistogram.Observe(overallRating)
	}
}
