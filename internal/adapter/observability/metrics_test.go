package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/v1/interviews/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/v1/interviews/{id}", http.MethodGet, http.StatusText(http.StatusTeapot)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/interviews/abc", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/v1/interviews/{id}", http.MethodGet, http.StatusText(http.StatusTeapot)))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, after)
}

func TestInterviewObservers(t *testing.T) {
	before := testutil.ToFloat64(ClassifierFallbacksTotal.WithLabelValues("assess_intro_progress", "error"))
	ObserveClassifierFallback("assess_intro_progress", "error")
	assert.Equal(t, before+1, testutil.ToFloat64(ClassifierFallbacksTotal.WithLabelValues("assess_intro_progress", "error")))

	before = testutil.ToFloat64(StageTransitionsTotal.WithLabelValues("introduction", "icebreaker"))
	ObserveStageTransition("introduction", "icebreaker")
	assert.Equal(t, before+1, testutil.ToFloat64(StageTransitionsTotal.WithLabelValues("introduction", "icebreaker")))

	before = testutil.ToFloat64(InterviewsCompletedTotal.WithLabelValues("manual_end"))
	ObserveInterviewCompleted("manual_end", 42)
	assert.Equal(t, before+1, testutil.ToFloat64(InterviewsCompletedTotal.WithLabelValues("manual_end")))
}

func TestJobLifecycleMetrics(t *testing.T) {
	EnqueueJob("plan")
	StartProcessingJob("plan")
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsProcessing.WithLabelValues("plan")))
	CompleteJob("plan")
	assert.Equal(t, 0.0, testutil.ToFloat64(JobsProcessing.WithLabelValues("plan")))
	StartProcessingJob("plan")
	FailJob("plan")
	assert.Equal(t, 0.0, testutil.ToFloat64(JobsProcessing.WithLabelValues("plan")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(JobsFailedTotal.WithLabelValues("plan")), 1.0)
}
