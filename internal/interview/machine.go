package interview

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	obsmetrics "github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
)

// EndCommand is the reserved input that ends a session at once.
const EndCommand = "END_INTERVIEW"

const (
	defaultJobTitle = "this position"
	introPrompt     = "Could you tell me a bit about yourself?"
	listeningPrompt = "Take your time. I'm listening!"
	manualEndLead   = "Thank you for completing the interview. Let me provide you with a comprehensive evaluation."
	timeoutLead     = "We've reached the time limit for this interview. Let's wrap up."
	closingMessage  = "Thanks again — this concludes the interview. Final evaluation saved."
)

// Reply is what the candidate sees after one turn. Stage is the stage after
// processing the input.
type Reply struct {
	Stage         Stage            `json:"stage"`
	Message       string           `json:"message"`
	InterviewDone bool             `json:"interview_done"`
	RequiresCode  bool             `json:"requires_code,omitempty"`
	CodeLanguage  string           `json:"code_language,omitempty"`
	Feedback      *domain.Feedback `json:"feedback,omitempty"`
}

// Machine drives sessions. It holds no per-session state and is safe for
// concurrent use by many sessions.
type Machine struct {
	classifier *Classifier
	aggregator *Aggregator
	sink       domain.PersistenceSink
	now        func() time.Time
	intn       func(int) int
}

// Option configures a Machine.
type Option func(*Machine)

// WithSink sets where finished sessions are persisted.
func WithSink(sink domain.PersistenceSink) Option {
	return func(m *Machine) { m.sink = sink }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithRandom overrides how transition phrases are picked.
func WithRandom(intn func(int) int) Option {
	return func(m *Machine) { m.intn = intn }
}

// WithRatingConcurrency bounds parallel rating calls at wrapup.
func WithRatingConcurrency(n int) Option {
	return func(m *Machine) { m.aggregator.concurrency = n }
}

// NewMachine wires a machine over the generator.
func NewMachine(gen domain.Generator, opts ...Option) *Machine {
	c := NewClassifier(gen)
	m := &Machine{
		classifier: c,
		aggregator: NewAggregator(c, 4),
		now:        time.Now,
		intn:       rand.IntN,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewSession creates a session in the introduction stage with the greeting
// already in the log. A positive cfg.TimeLimitMinutes overrides limits.
func (m *Machine) NewSession(id string, cfg domain.InterviewConfig, limits domain.InterviewLimits) SessionState {
	if strings.TrimSpace(cfg.JobTitle) == "" {
		cfg.JobTitle = defaultJobTitle
	}
	if cfg.TimeLimitMinutes > 0 {
		limits.TimeLimit = time.Duration(cfg.TimeLimitMinutes) * time.Minute
	}
	now := m.now()
	s := SessionState{
		ID:             id,
		Config:         cfg,
		Limits:         limits,
		Stage:          StageIntroduction,
		ResumeQueue:    append([]domain.Question(nil), cfg.CoreQuestions...),
		CustomQueue:    append([]domain.Question(nil), cfg.CustomQuestions...),
		Intro:          domain.NewRetryBudget(limits.MaxIntroRetries),
		Icebreaker:     domain.NewRetryBudget(limits.MaxIcebreakerRetries),
		IntroFollowup:  domain.NewRetryBudget(limits.MaxIntroFollowupRetries),
		ResumeFollowup: domain.NewRetryBudget(limits.MaxResumeFollowupRetries),
		CustomFollowup: domain.NewRetryBudget(limits.MaxCustomFollowupRetries),
		JobQnA:         domain.NewRetryBudget(limits.MaxJobQuestions),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.Log.Append(domain.RoleAssistant, Greeting(cfg.JobTitle))
	obsmetrics.InterviewsStartedTotal.Inc()
	return s
}

// Greeting is the first assistant turn of every session.
func Greeting(jobTitle string) string {
	return "Welcome to the interview for the role of " + jobTitle + ". Let's get started!"
}

// ReceiveInput runs one turn. The given state is not modified; the updated
// state is returned with the reply. Generator failures never surface here.
func (m *Machine) ReceiveInput(ctx context.Context, state SessionState, input string) (SessionState, Reply) {
	s := state.Clone()
	now := m.now()
	s.UpdatedAt = now
	if s.Done {
		return s, Reply{Stage: StageWrapup, Message: closingMessage, InterviewDone: true, Feedback: s.Feedback}
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}

	trimmed := strings.TrimSpace(input)
	if strings.ToUpper(trimmed) == EndCommand {
		return s, m.wrapup(ctx, &s, EndManual, manualEndLead)
	}
	if s.Limits.TimeLimit > 0 && now.Sub(s.StartedAt) >= s.Limits.TimeLimit {
		return s, m.wrapup(ctx, &s, EndTimeout, timeoutLead)
	}

	if trimmed != "" {
		s.Log.Append(domain.RoleUser, trimmed)
	}
	h, ok := handlerFor(s.Stage)
	if !ok {
		observability.LoggerFromContext(ctx).Error("session in unknown stage, wrapping up", slog.String("stage", string(s.Stage)))
		return s, m.wrapup(ctx, &s, EndCompleted, "")
	}
	reply := h(m, ctx, &s, trimmed)
	if !reply.InterviewDone && reply.Message != "" {
		s.Log.Append(domain.RoleAssistant, reply.Message)
	}
	return s, reply
}

type handler func(m *Machine, ctx context.Context, s *SessionState, input string) Reply

// handlerFor maps every stage to its handler. Adding a stage without a case
// here fails TestEveryStageHasHandler.
func handlerFor(stage Stage) (handler, bool) {
	switch stage {
	case StageIntroduction:
		return (*Machine).handleIntroduction, true
	case StageExplainJobRole:
		return (*Machine).handleRoleExplained, true
	case StageJobQnA:
		return (*Machine).handleJobQnA, true
	case StageIcebreaker:
		return (*Machine).handleIcebreaker, true
	case StageIntroFollowup:
		return (*Machine).handleIntroFollowup, true
	case StageResumeDiscussion:
		return (*Machine).handleResumeDiscussion, true
	case StageCoreQuestionFollowup:
		return (*Machine).handleCoreFollowup, true
	case StageCustomQuestions:
		return (*Machine).handleCustomQuestions, true
	case StageCustomQuestionFollowup:
		return (*Machine).handleCustomFollowup, true
	case StageCandidateQuestions:
		return (*Machine).handleCandidateQuestions, true
	case StageWrapup:
		return func(m *Machine, ctx context.Context, s *SessionState, _ string) Reply {
			return m.wrapup(ctx, s, EndCompleted, "")
		}, true
	}
	return nil, false
}

func (m *Machine) moveTo(ctx context.Context, s *SessionState, next Stage) {
	if s.Stage == next {
		return
	}
	obsmetrics.ObserveStageTransition(string(s.Stage), string(next))
	observability.LoggerFromContext(ctx).Debug("stage transition",
		slog.String("from", string(s.Stage)),
		slog.String("to", string(next)))
	s.Stage = next
}

func (m *Machine) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	i := m.intn(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}

func baseData(s *SessionState) promptData {
	return promptData{
		JobTitle:       s.Config.JobTitle,
		JobDescription: s.Config.JobDescription,
		Style:          s.Config.InterviewStyle,
	}
}

func say(s *SessionState, lead, msg string) Reply {
	return Reply{Stage: s.Stage, Message: join(lead, msg)}
}

func join(lead, msg string) string {
	switch {
	case lead == "":
		return msg
	case msg == "":
		return lead
	}
	return lead + "\n\n" + msg
}
