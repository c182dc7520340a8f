package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/usecase"
)

const maxInterviewBody = 1 << 20

type startInterviewRequest struct {
	Config   *domain.InterviewConfig `json:"config"`
	Template string                  `json:"template" validate:"omitempty,max=100"`
	PlanID   string                  `json:"plan_id" validate:"omitempty,uuid"`
}

type inputRequest struct {
	Input string `json:"input" validate:"max=8000"`
}

// StartInterviewHandler creates a session from an inline config, a named
// template or a completed question plan.
func (s *Server) StartInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req startInterviewRequest
		if !decodeJSON(w, r, maxInterviewBody, &req) {
			return
		}
		if req.Config != nil && len(req.Config.JobTitle) > 200 {
			writeError(w, r, fmt.Errorf("%w: job_title too long", domain.ErrInvalidArgument), map[string]string{"job_title": "max"})
			return
		}
		res, err := s.Interviews.Start(r.Context(), usecase.StartInput{Config: req.Config, Template: req.Template, PlanID: req.PlanID})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Location", "/v1/interviews/"+res.SessionID)
		writeJSON(w, http.StatusCreated, res)
	}
}

// InputHandler feeds one candidate turn and returns the interviewer reply.
func (s *Server) InputHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, map[string]string{"id": "uuid"})
			return
		}
		var req inputRequest
		if !decodeJSON(w, r, maxInterviewBody, &req) {
			return
		}
		reply, err := s.Interviews.Input(r.Context(), id, req.Input)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

// GetInterviewHandler returns the live session view.
func (s *Server) GetInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, map[string]string{"id": "uuid"})
			return
		}
		view, err := s.Interviews.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// FeedbackHandler returns the final evaluation of a finished session.
func (s *Server) FeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, map[string]string{"id": "uuid"})
			return
		}
		fb, err := s.Interviews.Feedback(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, fb)
	}
}
