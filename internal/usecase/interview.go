// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/interview"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
)

// SessionStore keeps live session state between turns.
type SessionStore interface {
	Save(ctx context.Context, st interview.SessionState) error
	Get(ctx context.Context, id string) (interview.SessionState, error)
	Lock(ctx context.Context, id string, hold time.Duration) (func(), error)
}

// TemplateSource resolves named interview templates.
type TemplateSource interface {
	Lookup(name string) (domain.InterviewConfig, error)
}

// StartInput selects the session configuration. Exactly one of Config or
// Template is required; PlanID optionally seeds the core questions from a
// completed question plan.
type StartInput struct {
	Config   *domain.InterviewConfig
	Template string
	PlanID   string
}

// StartResult is returned when a session is created.
type StartResult struct {
	SessionID string          `json:"session_id"`
	Stage     interview.Stage `json:"stage"`
	Message   string          `json:"message"`
}

// SessionView is the read model of a live session.
type SessionView struct {
	SessionID       string           `json:"session_id"`
	JobTitle        string           `json:"job_title"`
	Stage           interview.Stage  `json:"stage"`
	Done            bool             `json:"interview_done"`
	EndReason       string           `json:"end_reason,omitempty"`
	Turns           []domain.Message `json:"turns"`
	ResumeRemaining int              `json:"resume_questions_remaining"`
	CustomRemaining int              `json:"custom_questions_remaining"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// InterviewService drives sessions over a shared stateless machine. Turns
// for one session are serialized by the store lock.
type InterviewService struct {
	Machine   *interview.Machine
	Store     SessionStore
	Templates TemplateSource
	Plans     domain.PlanRepository
	Feedbacks domain.FeedbackRepository
	Events    domain.EventPublisher
	Limits    domain.InterviewLimits

	// LockHold bounds how long one turn may hold the session lock.
	LockHold time.Duration
	// LimiterIdle is how long an unused per-session limiter is kept.
	LimiterIdle time.Duration

	inputRate  rate.Limit
	inputBurst int
	mu         sync.Mutex
	limiters   map[string]*sessionLimiter
	lastPrune  time.Time
	now        func() time.Time
	newID      func() string
}

type sessionLimiter struct {
	lim      *rate.Limiter
	lastUsed time.Time
}

// NewInterviewService constructs the service. inputsPerSecond <= 0 disables
// per-session throttling.
func NewInterviewService(m *interview.Machine, store SessionStore, templates TemplateSource, plans domain.PlanRepository, feedbacks domain.FeedbackRepository, events domain.EventPublisher, limits domain.InterviewLimits, inputsPerSecond float64, burst int) *InterviewService {
	if burst <= 0 {
		burst = 1
	}
	return &InterviewService{
		Machine:    m,
		Store:      store,
		Templates:  templates,
		Plans:      plans,
		Feedbacks:  feedbacks,
		Events:     events,
		Limits:     limits,
		LockHold:    2 * time.Minute,
		LimiterIdle: 10 * time.Minute,
		inputRate:   rate.Limit(inputsPerSecond),
		inputBurst:  burst,
		limiters:    map[string]*sessionLimiter{},
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Start creates a session, stores it and returns the greeting.
func (s *InterviewService) Start(ctx domain.Context, in StartInput) (StartResult, error) {
	cfg, err := s.resolveConfig(ctx, in)
	if err != nil {
		return StartResult{}, fmt.Errorf("op=usecase.Start: %w", err)
	}
	id := s.newID()
	st := s.Machine.NewSession(id, cfg, s.Limits)
	if err := s.Store.Save(ctx, st); err != nil {
		return StartResult{}, fmt.Errorf("op=usecase.Start: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("interview started",
		slog.String("session_id", id),
		slog.String("job_title", st.Config.JobTitle),
		slog.Int("core_questions", len(st.ResumeQueue)),
		slog.Int("custom_questions", len(st.CustomQueue)))
	greeting := ""
	if turns := st.Log.Turns(); len(turns) > 0 {
		greeting = turns[len(turns)-1].Content
	}
	return StartResult{SessionID: id, Stage: st.Stage, Message: greeting}, nil
}

func (s *InterviewService) resolveConfig(ctx domain.Context, in StartInput) (domain.InterviewConfig, error) {
	var cfg domain.InterviewConfig
	switch {
	case in.Config != nil && strings.TrimSpace(in.Template) != "":
		return cfg, fmt.Errorf("%w: provide either config or template, not both", domain.ErrInvalidArgument)
	case in.Config != nil:
		cfg = *in.Config
	case strings.TrimSpace(in.Template) != "":
		if s.Templates == nil {
			return cfg, fmt.Errorf("%w: interview template %q", domain.ErrNotFound, in.Template)
		}
		tpl, err := s.Templates.Lookup(in.Template)
		if err != nil {
			return cfg, err
		}
		cfg = tpl
	case in.PlanID == "":
		return cfg, fmt.Errorf("%w: config, template or plan_id required", domain.ErrInvalidArgument)
	}

	if in.PlanID != "" {
		if s.Plans == nil {
			return cfg, fmt.Errorf("%w: question plans unavailable", domain.ErrNotFound)
		}
		plan, err := s.Plans.Get(ctx, in.PlanID)
		if err != nil {
			return cfg, err
		}
		if plan.Status != domain.JobCompleted {
			return cfg, fmt.Errorf("%w: question plan %s is %s", domain.ErrConflict, plan.ID, plan.Status)
		}
		cfg.CoreQuestions = append([]domain.Question(nil), plan.Questions...)
		if strings.TrimSpace(cfg.JobTitle) == "" {
			cfg.JobTitle = plan.Request.JobTitle
		}
		if strings.TrimSpace(cfg.JobDescription) == "" {
			cfg.JobDescription = plan.Request.JobDescription
		}
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Input runs one turn of the session. A finished session keeps answering
// with the closing reply.
func (s *InterviewService) Input(ctx domain.Context, sessionID, text string) (interview.Reply, error) {
	release, err := s.Store.Lock(ctx, sessionID, s.LockHold)
	if err != nil {
		return interview.Reply{}, fmt.Errorf("op=usecase.Input: %w", err)
	}
	defer release()

	st, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return interview.Reply{}, fmt.Errorf("op=usecase.Input: %w", err)
	}
	// finished sessions only replay the closing reply
	if !st.Done && !s.allow(sessionID) {
		return interview.Reply{}, fmt.Errorf("op=usecase.Input: %w: too many inputs for session", domain.ErrRateLimited)
	}
	ctx = observability.ContextWithSession(ctx, sessionID)
	wasDone := st.Done
	next, reply := s.Machine.ReceiveInput(ctx, st, text)
	if err := s.Store.Save(ctx, next); err != nil {
		return interview.Reply{}, fmt.Errorf("op=usecase.Input: %w", err)
	}
	if next.Done && !wasDone {
		s.forget(sessionID)
		s.publishCompleted(ctx, next)
	}
	return reply, nil
}

func (s *InterviewService) publishCompleted(ctx domain.Context, st interview.SessionState) {
	if s.Events == nil {
		return
	}
	ev := domain.InterviewCompletedEvent{
		SessionID:   st.ID,
		JobTitle:    st.Config.JobTitle,
		EndReason:   st.EndReason,
		CompletedAt: st.UpdatedAt,
	}
	if st.Feedback != nil {
		ev.OverallRating = st.Feedback.OverallRating
		ev.Responses = st.Feedback.Stats.TotalResponses
		ev.CompletedAt = st.Feedback.CreatedAt
	}
	if err := s.Events.PublishInterviewCompleted(ctx, ev); err != nil {
		observability.LoggerFromContext(ctx).Error("publish interview completed failed", slog.Any("error", err))
	}
}

// Get returns the read model of a live session.
func (s *InterviewService) Get(ctx domain.Context, sessionID string) (SessionView, error) {
	st, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, fmt.Errorf("op=usecase.Get: %w", err)
	}
	v := SessionView{
		SessionID:       st.ID,
		JobTitle:        st.Config.JobTitle,
		Stage:           st.Stage,
		Done:            st.Done,
		EndReason:       st.EndReason,
		Turns:           st.Log.Turns(),
		ResumeRemaining: len(st.ResumeQueue),
		CustomRemaining: len(st.CustomQueue),
		UpdatedAt:       st.UpdatedAt,
	}
	if !st.StartedAt.IsZero() {
		started := st.StartedAt
		v.StartedAt = &started
	}
	return v, nil
}

// Feedback returns the final evaluation. Live sessions answer from the
// store; expired ones fall back to the persisted copy.
func (s *InterviewService) Feedback(ctx domain.Context, sessionID string) (domain.Feedback, error) {
	st, err := s.Store.Get(ctx, sessionID)
	switch {
	case err == nil && st.Done && st.Feedback != nil:
		return *st.Feedback, nil
	case err == nil:
		return domain.Feedback{}, fmt.Errorf("op=usecase.Feedback: %w: interview still in progress", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Feedback{}, fmt.Errorf("op=usecase.Feedback: %w", err)
	}
	if s.Feedbacks == nil {
		return domain.Feedback{}, fmt.Errorf("op=usecase.Feedback: %w", err)
	}
	fb, err := s.Feedbacks.GetFeedback(ctx, sessionID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("op=usecase.Feedback: %w", err)
	}
	return fb, nil
}

// allow is only called for sessions the store returned. Limiters idle for
// longer than LimiterIdle are dropped, at most once per LimiterIdle.
func (s *InterviewService) allow(sessionID string) bool {
	if s.inputRate <= 0 {
		return true
	}
	now := s.now()
	s.mu.Lock()
	s.pruneLocked(now)
	e, ok := s.limiters[sessionID]
	if !ok {
		e = &sessionLimiter{lim: rate.NewLimiter(s.inputRate, s.inputBurst)}
		s.limiters[sessionID] = e
	}
	e.lastUsed = now
	s.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

func (s *InterviewService) pruneLocked(now time.Time) {
	if s.LimiterIdle <= 0 || now.Sub(s.lastPrune) < s.LimiterIdle {
		return
	}
	s.lastPrune = now
	for id, e := range s.limiters {
		if now.Sub(e.lastUsed) >= s.LimiterIdle {
			delete(s.limiters, id)
		}
	}
}

func (s *InterviewService) forget(sessionID string) {
	s.mu.Lock()
	delete(s.limiters, sessionID)
	s.mu.Unlock()
}
