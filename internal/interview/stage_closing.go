package interview

import (
	"context"
	"log/slog"

	obsmetrics "github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/pkg/textx"
)

const (
	candidateInvite     = "Thanks for the answers! Before we wrap up, do you have any questions for me?"
	candidateReminder   = "I think we've reached the end of this interview. Do you have any questions for me before we wrap up?"
	candidateCapReached = "Thanks again for your thoughtful questions — let me wrap up with a quick summary."
	lastChanceNote      = "This is the candidate's last question; mention that you will wrap up after answering."
)

var noCandidateQuestions = []string{
	"no", "none", "nope", "nothing", "not really", "i'm good", "no thanks",
}

var candidateFollowups = []string{
	"Anything else you'd like to ask before we wrap up?",
	"Do you have any other questions for me?",
	"Is there anything you're curious about before we end?",
	"Would you like to ask anything else before we conclude?",
}

func (m *Machine) enterCandidate(ctx context.Context, s *SessionState, lead string) Reply {
	s.CurrentQuestion = nil
	s.PendingPrompt = ""
	m.moveTo(ctx, s, StageCandidateQuestions)
	return say(s, lead, candidateInvite)
}

func (m *Machine) handleCandidateQuestions(ctx context.Context, s *SessionState, input string) Reply {
	if input == "" {
		return say(s, "", candidateReminder)
	}
	if textx.MatchesAny(input, noCandidateQuestions) {
		return m.wrapup(ctx, s, EndCompleted, "")
	}
	data := baseData(s)
	if m.classifier.Decide(ctx, SiteCandidateHasQuestion, data, nil, input) != LabelYes {
		return m.wrapup(ctx, s, EndCompleted, "")
	}

	limit := s.Limits.MaxCandidateQuestions
	if limit < 1 {
		limit = 1
	}
	if s.CandidateQuestions == limit-2 {
		data.Previous = lastChanceNote
	}
	answer := m.classifier.Generate(ctx, SiteAnswerCandidate, data, s.Log.Tail(6), "")
	s.CandidateQuestions++
	if s.CandidateQuestions >= limit {
		return m.wrapup(ctx, s, EndCompleted, join(answer, candidateCapReached))
	}
	return say(s, answer, m.pick(candidateFollowups))
}

// wrapup is the only way into the terminal stage. It analyses the log,
// persists both artifacts independently and marks the session done.
func (m *Machine) wrapup(ctx context.Context, s *SessionState, reason, lead string) Reply {
	m.moveTo(ctx, s, StageWrapup)
	lg := observability.LoggerFromContext(ctx)

	entries := m.aggregator.Analyze(ctx, s.Evaluations)
	fb := m.aggregator.Summarize(ctx, s.Config.JobTitle, s.Log.Turns(), entries)
	fb.SessionID = s.ID
	fb.CreatedAt = m.now()

	s.Done = true
	s.EndReason = reason
	s.Feedback = &fb

	msg := join(lead, closingMessage)
	s.Log.Append(domain.RoleAssistant, msg)

	if m.sink != nil {
		if err := m.sink.SaveTranscript(ctx, s.Transcript(fb.CreatedAt)); err != nil {
			obsmetrics.PersistenceFailuresTotal.WithLabelValues("transcript").Inc()
			lg.Error("save transcript failed", slog.String("session_id", s.ID), slog.Any("error", err))
		}
		if err := m.sink.SaveFeedback(ctx, fb); err != nil {
			obsmetrics.PersistenceFailuresTotal.WithLabelValues("feedback").Inc()
			lg.Error("save feedback failed", slog.String("session_id", s.ID), slog.Any("error", err))
		}
	}
	obsmetrics.ObserveInterviewCompleted(reason, fb.OverallRating)
	lg.Info("interview finished",
		slog.String("reason", reason),
		slog.Int("responses", fb.Stats.TotalResponses),
		slog.Float64("overall_rating", fb.OverallRating))

	return Reply{Stage: StageWrapup, Message: msg, InterviewDone: true, Feedback: s.Feedback}
}
