package interview

import (
	"context"
	"strings"

	"github.com/fairyhunter13/ai-mock-interviewer/pkg/textx"
)

// jobExplainedTag marks an intro reply that already explained the role.
const jobExplainedTag = "[[job_explained]]"

const (
	roleQuestionsPrompt = "Do you have any questions about the role before we proceed?"
	moreRoleQuestions   = "Do you have any other questions about the role?"
	askForQuestion      = "Could you please go ahead with your question?"
	roleContinueLead    = "Great — let's continue then."
	roleQuestionsDone   = "Thanks for your questions — let's move on."
)

// noMoreQuestions short-circuits the job Q&A loop without asking the model.
var noMoreQuestions = []string{
	"no", "nope", "nothing", "nothing else", "that's all",
	"i'm good", "i'm clear", "ready to proceed", "let's continue",
}

func (m *Machine) handleIntroduction(ctx context.Context, s *SessionState, input string) Reply {
	data := baseData(s)
	if !s.JobQnADone && !s.JobRoleExplained && input != "" {
		if m.classifier.Decide(ctx, SiteShouldExplainRole, data, nil, input) == LabelYes {
			return m.enterExplainRole(ctx, s, "")
		}
	}

	if m.classifier.Decide(ctx, SiteAssessIntro, data, s.Log.Turns(), "") == LabelContinue {
		s.IntroDone = true
		s.Intro = s.Intro.Reset()
		return m.enterIcebreaker(ctx, s, "")
	}

	s.Intro = s.Intro.Record()
	if s.Intro.Exhausted() {
		s.IntroDone = true
		return m.enterIcebreaker(ctx, s, "")
	}

	reply := m.classifier.Generate(ctx, SiteIntroReply, data, s.Log.Turns(), "")
	if strings.Contains(reply, jobExplainedTag) {
		s.JobRoleExplained = true
		reply = strings.TrimSpace(strings.ReplaceAll(reply, jobExplainedTag, ""))
		if reply == "" {
			reply = introPrompt
		}
	}
	return say(s, "", reply)
}

func (m *Machine) enterExplainRole(ctx context.Context, s *SessionState, lead string) Reply {
	m.moveTo(ctx, s, StageExplainJobRole)
	s.JobRoleExplained = true
	explanation := m.classifier.Generate(ctx, SiteExplainRole, baseData(s), nil, "")
	return say(s, lead, explanation+"\n\n"+roleQuestionsPrompt)
}

// handleRoleExplained takes the single reply to "any questions about the role?".
func (m *Machine) handleRoleExplained(ctx context.Context, s *SessionState, input string) Reply {
	if textx.MatchesAny(input, noMoreQuestions) ||
		m.classifier.Decide(ctx, SiteRoleContinuation, baseData(s), s.Log.Tail(4), "") == LabelDone {
		return m.finishJobQnA(ctx, s, roleContinueLead)
	}
	m.moveTo(ctx, s, StageJobQnA)
	return m.handleJobQnA(ctx, s, input)
}

func (m *Machine) handleJobQnA(ctx context.Context, s *SessionState, input string) Reply {
	if textx.MatchesAny(input, noMoreQuestions) {
		return m.finishJobQnA(ctx, s, roleQuestionsDone)
	}
	data := baseData(s)
	s.JobQnA = s.JobQnA.Record()

	answer := askForQuestion
	if input != "" && m.classifier.Decide(ctx, SiteClassifyFollowup, data, nil, input) == LabelQuestion {
		answer = m.classifier.Generate(ctx, SiteAnswerJobQuestion, data, s.Log.Tail(4), "")
	}
	if s.JobQnA.Exhausted() ||
		m.classifier.Decide(ctx, SiteJobQnAFinished, data, s.Log.Tail(4), "") == LabelDone {
		return m.finishJobQnA(ctx, s, join(answer, roleQuestionsDone))
	}
	return say(s, answer, moreRoleQuestions)
}

// finishJobQnA leaves the role sub-dialogue for wherever the intro stands.
func (m *Machine) finishJobQnA(ctx context.Context, s *SessionState, lead string) Reply {
	s.JobQnADone = true
	s.JobQnA = s.JobQnA.Reset()
	if s.IntroDone {
		return m.enterIcebreaker(ctx, s, lead)
	}
	m.moveTo(ctx, s, StageIntroduction)
	return say(s, lead, introPrompt)
}
