package interview

import (
	"time"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// Memory carries the latest answer into the next follow-up prompt. It is
// overwritten every turn.
type Memory struct {
	LastResumeReply string `json:"last_resume_reply,omitempty"`
	LastCustomReply string `json:"last_custom_reply,omitempty"`
}

// SessionState is everything the machine knows about one interview. The
// machine never mutates a state it was given; ReceiveInput returns an
// updated copy.
type SessionState struct {
	ID     string                 `json:"id"`
	Config domain.InterviewConfig `json:"config"`
	Limits domain.InterviewLimits `json:"limits"`
	Stage  Stage                  `json:"stage"`

	Log         ConversationLog          `json:"log"`
	Evaluations []domain.EvaluationEntry `json:"evaluations"`
	Memory      Memory                   `json:"memory"`

	ResumeQueue     []domain.Question `json:"resume_queue"`
	CustomQueue     []domain.Question `json:"custom_queue"`
	CurrentQuestion *domain.Question  `json:"current_question,omitempty"`
	// PendingPrompt is the last question asked that is not a queued one:
	// an icebreaker, an intro follow-up or a core/custom follow-up.
	PendingPrompt string `json:"pending_prompt,omitempty"`

	IntroDone        bool `json:"intro_done"`
	JobRoleExplained bool `json:"job_role_explained"`
	JobQnADone       bool `json:"job_qna_done"`

	Intro          domain.RetryBudget `json:"intro_budget"`
	Icebreaker     domain.RetryBudget `json:"icebreaker_budget"`
	IntroFollowup  domain.RetryBudget `json:"intro_followup_budget"`
	ResumeFollowup domain.RetryBudget `json:"resume_followup_budget"`
	CustomFollowup domain.RetryBudget `json:"custom_followup_budget"`
	JobQnA         domain.RetryBudget `json:"job_qna_budget"`

	CustomEvaluations  []Label `json:"custom_evaluations,omitempty"`
	CandidateQuestions int     `json:"candidate_questions"`

	StartedAt time.Time `json:"started_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Done      bool             `json:"done"`
	EndReason string           `json:"end_reason,omitempty"`
	Feedback  *domain.Feedback `json:"feedback,omitempty"`
}

// Clone returns a deep copy so a handler can work on it freely.
func (s SessionState) Clone() SessionState {
	out := s
	out.Log = append(ConversationLog(nil), s.Log...)
	out.Evaluations = cloneEntries(s.Evaluations)
	out.ResumeQueue = append([]domain.Question(nil), s.ResumeQueue...)
	out.CustomQueue = append([]domain.Question(nil), s.CustomQueue...)
	out.CustomEvaluations = append([]Label(nil), s.CustomEvaluations...)
	out.Config.CoreQuestions = append([]domain.Question(nil), s.Config.CoreQuestions...)
	out.Config.CustomQuestions = append([]domain.Question(nil), s.Config.CustomQuestions...)
	out.Config.Icebreakers = append([]string(nil), s.Config.Icebreakers...)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		out.CurrentQuestion = &q
	}
	if s.Feedback != nil {
		f := *s.Feedback
		f.KeyStrengths = append([]string(nil), s.Feedback.KeyStrengths...)
		f.ImprovementAreas = append([]string(nil), s.Feedback.ImprovementAreas...)
		f.Entries = cloneEntries(s.Feedback.Entries)
		out.Feedback = &f
	}
	return out
}

// Transcript snapshots the conversation for persistence.
func (s SessionState) Transcript(now time.Time) domain.Transcript {
	return domain.Transcript{
		SessionID: s.ID,
		JobTitle:  s.Config.JobTitle,
		Turns:     s.Log.Turns(),
		EndReason: s.EndReason,
		CreatedAt: now,
	}
}

func cloneEntries(in []domain.EvaluationEntry) []domain.EvaluationEntry {
	if in == nil {
		return nil
	}
	out := make([]domain.EvaluationEntry, len(in))
	for i, e := range in {
		out[i] = e
		if e.KnowledgeRating != nil {
			r := *e.KnowledgeRating
			out[i].KnowledgeRating = &r
		}
	}
	return out
}

func popQuestion(queue []domain.Question) (domain.Question, []domain.Question, bool) {
	if len(queue) == 0 {
		return domain.Question{}, queue, false
	}
	return queue[0], queue[1:], true
}
