package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/config"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/interview"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/usecase"
)

// InterviewAPI is the session surface the handlers drive.
type InterviewAPI interface {
	Start(ctx domain.Context, in usecase.StartInput) (usecase.StartResult, error)
	Input(ctx domain.Context, sessionID, text string) (interview.Reply, error)
	Get(ctx domain.Context, sessionID string) (usecase.SessionView, error)
	Feedback(ctx domain.Context, sessionID string) (domain.Feedback, error)
}

// PlanAPI is the question-plan surface the handlers drive.
type PlanAPI interface {
	Enqueue(ctx domain.Context, req domain.PlanRequest) (string, error)
	Fetch(ctx domain.Context, id string) (domain.PlanJob, error)
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Interviews InterviewAPI
	Plans      PlanAPI
	Checks     []ReadinessCheck
}

// NewServer constructs a Server.
func NewServer(cfg config.Config, interviews InterviewAPI, plans PlanAPI, checks ...ReadinessCheck) *Server {
	return &Server{Cfg: cfg, Interviews: interviews, Plans: plans, Checks: checks}
}

// ReadyzHandler probes every configured dependency and answers 503 when
// any of them fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(s.Checks))
		status := http.StatusOK
		for _, c := range s.Checks {
			res := check{Name: c.Name, OK: true}
			if err := c.Check(ctx); err != nil {
				res.OK = false
				res.Details = err.Error()
				status = http.StatusServiceUnavailable
			}
			checks = append(checks, res)
		}
		writeJSON(w, status, map[string]any{"checks": checks})
	}
}
