package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrInternal          = errors.New("internal error")
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversational turn. Once appended to a log it is never modified.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
)

// Difficulties lists tiers in planning order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyMedium, DifficultyHard}

// Weight returns the scoring multiplier for the tier.
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyBeginner:
		return 1
	case DifficultyMedium:
		return 3
	case DifficultyHard:
		return 5
	default:
		return 0
	}
}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool { return d.Weight() > 0 }

// Question source tags
const (
	SourceResume = "resume"
	SourceJD     = "jd"
	SourceBlend  = "blend"
	SourceCore   = "core"
)

// Question is an interview question consumed FIFO by the interview flow.
type Question struct {
	Text         string     `json:"text" yaml:"text" validate:"required"`
	Difficulty   Difficulty `json:"difficulty,omitempty" yaml:"difficulty"`
	Weight       int        `json:"weight,omitempty" yaml:"weight"`
	SourceTag    string     `json:"source_tag,omitempty" yaml:"source_tag"`
	RequiresCode bool       `json:"requires_code,omitempty" yaml:"requires_code"`
	CodeLanguage string     `json:"code_language,omitempty" yaml:"code_language"`
}

// EvaluationEntry is one judged answer. KnowledgeRating and Emotion are
// filled in only by the final analysis.
type EvaluationEntry struct {
	Stage           string `json:"stage"`
	Question        string `json:"question"`
	Response        string `json:"response"`
	Evaluation      string `json:"evaluation"`
	KnowledgeRating *int   `json:"knowledge_rating,omitempty"`
	Emotion         string `json:"emotion,omitempty"`
}

// FeedbackStats are computed in code from the analysed entries.
type FeedbackStats struct {
	TotalResponses  int     `json:"total_responses"`
	AverageRating   float64 `json:"average_rating"`
	WeakResponses   int     `json:"weak_responses"`
	StrongResponses int     `json:"strong_responses"`
	NervousCount    int     `json:"nervous_responses"`
	UnsureCount     int     `json:"unsure_responses"`
}

// Feedback is the final evaluation of a session.
type Feedback struct {
	SessionID        string            `json:"session_id"`
	JobTitle         string            `json:"job_title"`
	Summary          string            `json:"summary"`
	KeyStrengths     []string          `json:"key_strengths"`
	ImprovementAreas []string          `json:"improvement_areas"`
	OverallRating    float64           `json:"overall_rating"`
	Stats            FeedbackStats     `json:"stats"`
	Entries          []EvaluationEntry `json:"evaluation_log"`
	Templated        bool              `json:"templated"`
	CreatedAt        time.Time         `json:"created_at"`
}

// InterviewConfig is consumed once when a session is created.
type InterviewConfig struct {
	JobTitle         string        `json:"job_title" yaml:"job_title"`
	JobDescription   string        `json:"job_description" yaml:"job_description"`
	InterviewStyle   string        `json:"interview_style" yaml:"interview_style"`
	CustomQuestions  []Question    `json:"custom_questions" yaml:"custom_questions"`
	CoreQuestions    []Question    `json:"core_questions" yaml:"core_questions"`
	Icebreakers      []string      `json:"icebreakers" yaml:"icebreakers"`
	TimeLimitMinutes int           `json:"time_limit_minutes" yaml:"time_limit_minutes"`
	TimeLimit        time.Duration `json:"-" yaml:"-"`
}

// Normalize checks the config and fills derived fields: TimeLimit from
// TimeLimitMinutes and question weights from difficulty.
func (c *InterviewConfig) Normalize() error {
	if c.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: negative time_limit_minutes", ErrInvalidArgument)
	}
	if c.TimeLimitMinutes > 0 {
		c.TimeLimit = time.Duration(c.TimeLimitMinutes) * time.Minute
	}
	for _, qs := range [][]Question{c.CoreQuestions, c.CustomQuestions} {
		for i := range qs {
			if strings.TrimSpace(qs[i].Text) == "" {
				return fmt.Errorf("%w: question %d has no text", ErrInvalidArgument, i)
			}
			if qs[i].Difficulty != "" && !qs[i].Difficulty.Valid() {
				return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidArgument, qs[i].Difficulty)
			}
			if qs[i].Weight == 0 {
				qs[i].Weight = qs[i].Difficulty.Weight()
			}
		}
	}
	return nil
}

// InterviewLimits bounds every sub-dialogue of a session.
type InterviewLimits struct {
	MaxIntroRetries          int
	MaxIcebreakerRetries     int
	MaxIntroFollowupRetries  int
	MaxResumeFollowupRetries int
	MaxCustomFollowupRetries int
	MaxJobQuestions          int
	MaxCandidateQuestions    int
	TimeLimit                time.Duration
}

// DefaultInterviewLimits mirrors the env defaults.
func DefaultInterviewLimits() InterviewLimits {
	return InterviewLimits{
		MaxIntroRetries:          3,
		MaxIcebreakerRetries:     3,
		MaxIntroFollowupRetries:  3,
		MaxResumeFollowupRetries: 3,
		MaxCustomFollowupRetries: 3,
		MaxJobQuestions:          3,
		MaxCandidateQuestions:    4,
		TimeLimit:                30 * time.Minute,
	}
}

// Transcript is the persisted conversation of a finished session.
type Transcript struct {
	SessionID string    `json:"session_id"`
	JobTitle  string    `json:"job_title"`
	Turns     []Message `json:"turns"`
	EndReason string    `json:"end_reason"`
	CreatedAt time.Time `json:"created_at"`
}

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// PlanPolicy selects how questions are sourced from resume and job description.
type PlanPolicy string

const (
	PolicyCore   PlanPolicy = "core"
	PolicySplit  PlanPolicy = "split"
	PolicyBlend  PlanPolicy = "blend"
	PolicyHybrid PlanPolicy = "hybrid"
)

// PlanRequest describes a question-generation batch.
type PlanRequest struct {
	JobTitle       string     `json:"job_title" validate:"required,max=200"`
	JobDescription string     `json:"job_description" validate:"max=20000"`
	ResumeText     string     `json:"resume_text" validate:"max=60000"`
	Beginner       int        `json:"beginner" validate:"gte=0,lte=20"`
	Medium         int        `json:"medium" validate:"gte=0,lte=20"`
	Hard           int        `json:"hard" validate:"gte=0,lte=20"`
	Policy         PlanPolicy `json:"policy" validate:"omitempty,oneof=core split blend hybrid"`
	ResumePct      int        `json:"resume_pct" validate:"gte=0,lte=100"`
	TechnicalPct   int        `json:"technical_pct" validate:"gte=0,lte=100"`
}

// Total is the number of questions requested across tiers.
func (r PlanRequest) Total() int { return r.Beginner + r.Medium + r.Hard }

// PlanJob tracks an asynchronous question-generation batch.
type PlanJob struct {
	ID        string
	Status    JobStatus
	Error     string
	Request   PlanRequest
	Questions []Question
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanTaskPayload is the queue message for a plan job.
type PlanTaskPayload struct {
	PlanID string `json:"plan_id"`
}

// InterviewCompletedEvent is published after a session reaches wrapup.
type InterviewCompletedEvent struct {
	SessionID     string    `json:"session_id"`
	JobTitle      string    `json:"job_title"`
	EndReason     string    `json:"end_reason"`
	OverallRating float64   `json:"overall_rating"`
	Responses     int       `json:"responses"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Ports

// Generator is a stateless text-completion service.
type Generator interface {
	Complete(ctx Context, messages []Message) (string, error)
}

// PersistenceSink stores the artifacts of a finished session. The two writes
// are independent and may fail independently.
type PersistenceSink interface {
	SaveTranscript(ctx Context, t Transcript) error
	SaveFeedback(ctx Context, f Feedback) error
}

// FeedbackRepository reads stored feedback.
type FeedbackRepository interface {
	GetFeedback(ctx Context, sessionID string) (Feedback, error)
}

type PlanRepository interface {
	Create(ctx Context, req PlanRequest) (string, error)
	Get(ctx Context, id string) (PlanJob, error)
	UpdateStatus(ctx Context, id string, status JobStatus, errMsg *string) error
	SaveQuestions(ctx Context, id string, qs []Question) error
}

// Queue (port)

type Queue interface {
	EnqueuePlan(ctx Context, payload PlanTaskPayload) (string, error)
}

// EventPublisher emits domain events to downstream consumers.
type EventPublisher interface {
	PublishInterviewCompleted(ctx Context, ev InterviewCompletedEvent) error
}

// Context aliases the standard context so ports read naturally.
type Context = context.Context
