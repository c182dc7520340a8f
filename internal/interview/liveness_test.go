package interview

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// Each sub-dialogue must force a transition within max+1 turns when every
// answer is judged insufficient.

func TestLiveness_Introduction(t *testing.T) {
	replies := happyReplies()
	replies[SiteAssessIntro] = "retry"
	h := newHarness(replies)
	limits := domain.DefaultInterviewLimits()
	s := h.m.NewSession("s-1", domain.InterviewConfig{}, limits)

	for i := 1; i < limits.MaxIntroRetries; i++ {
		var r Reply
		s, r = h.m.ReceiveInput(context.Background(), s, "hello")
		require.Equal(t, StageIntroduction, r.Stage, "attempt %d", i)
		assert.Equal(t, i, s.Intro.Count)
	}
	s, r := h.m.ReceiveInput(context.Background(), s, "hello")
	assert.Equal(t, StageIcebreaker, r.Stage)
	assert.True(t, s.IntroDone)
	assert.LessOrEqual(t, s.Intro.Count, s.Intro.Max)
}

func TestLiveness_IntroductionWaitCountsAsAttempt(t *testing.T) {
	replies := happyReplies()
	replies[SiteAssessIntro] = "Wait."
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{}, domain.DefaultInterviewLimits())
	s, _ = drive(t, h.m, s, "one sec", "still typing", "ok")
	assert.Equal(t, StageIcebreaker, s.Stage)
}

func TestLiveness_Icebreaker(t *testing.T) {
	replies := happyReplies()
	replies[SiteAssessIcebreaker] = "retry"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{
		Icebreakers: []string{"Cats or dogs?", "Favourite food?"},
	}, domain.DefaultInterviewLimits())

	s, rs := drive(t, h.m, s, "intro", "ok", "ok")
	assert.Equal(t, "Cats or dogs?", rs[0].Message, "configured icebreakers are used first")
	assert.Equal(t, "Favourite food?", rs[1].Message)
	assert.Equal(t, "generated "+string(SiteIcebreakerQuestion), rs[2].Message, "then they are generated")
	require.Equal(t, StageIcebreaker, s.Stage)

	s, r := h.m.ReceiveInput(context.Background(), s, "ok")
	assert.Equal(t, StageIntroFollowup, r.Stage)
	assert.True(t, strings.HasPrefix(r.Message, "Let's move on anyway. Thanks!"))
}

func TestLiveness_IntroFollowup(t *testing.T) {
	replies := happyReplies()
	replies[SiteAssessIntroFollowup] = "weak"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CoreQuestions: questions("Q1")}, domain.DefaultInterviewLimits())

	s, rs := drive(t, h.m, s, "intro", "hobby", "meh", "meh", "meh")
	assert.Equal(t, StageIntroFollowup, rs[3].Stage)
	assert.Equal(t, StageResumeDiscussion, s.Stage)
	assert.Equal(t, "Thanks! Let's continue with your resume.\n\nQ1", rs[4].Message)
}

func TestLiveness_CoreQuestionFollowup(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldFollowUp] = "yes"
	replies[SiteEvaluateResume] = "weak"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CoreQuestions: questions("Q1", "Q2")}, domain.DefaultInterviewLimits())

	s, rs := drive(t, h.m, s, "intro", "hobby", "motivation", "first answer")
	require.Equal(t, StageCoreQuestionFollowup, rs[3].Stage)
	assert.Equal(t, "generated "+string(SiteResumeFollowup), rs[3].Message)

	s, rs = drive(t, h.m, s, "weak 1", "weak 2")
	assert.Equal(t, StageCoreQuestionFollowup, rs[0].Stage)
	assert.Equal(t, "generated "+string(SiteResumeClarify), rs[0].Message, "first weak answer gets a clarification")
	assert.Equal(t, "generated "+string(SiteResumeFollowup), rs[1].Message)

	s, r := h.m.ReceiveInput(context.Background(), s, "weak 3")
	assert.Equal(t, StageResumeDiscussion, r.Stage)
	assert.Equal(t, "That's okay — let's move to the next topic.\n\nQ2", r.Message)

	last := s.Evaluations[len(s.Evaluations)-1]
	assert.Equal(t, "no_answer", last.Evaluation)
	assert.Equal(t, "[Follow-up limit reached]", last.Response)
	assert.Equal(t, 0, s.ResumeFollowup.Count, "budget resets for the next question")
}

func TestCoreQuestionFollowup_OffTopicRedirects(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldFollowUp] = "yes"
	replies[SiteEvaluateResume] = "Off-topic"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CoreQuestions: questions("Q1")}, domain.DefaultInterviewLimits())
	s, _ = drive(t, h.m, s, "intro", "hobby", "motivation", "answer")

	s, r := h.m.ReceiveInput(context.Background(), s, "let's talk football")
	assert.Equal(t, StageCoreQuestionFollowup, r.Stage)
	assert.Equal(t, "generated "+string(SiteResumeRedirect), r.Message)
	assert.Equal(t, "off_topic", s.Evaluations[len(s.Evaluations)-1].Evaluation)
}

func TestCoreQuestionFollowup_ClearAdvances(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldFollowUp] = "yes"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CoreQuestions: questions("Q1", "Q2")}, domain.DefaultInterviewLimits())
	s, _ = drive(t, h.m, s, "intro", "hobby", "motivation", "answer")

	s, r := h.m.ReceiveInput(context.Background(), s, "detailed answer")
	assert.Equal(t, StageResumeDiscussion, r.Stage)
	assert.Equal(t, "Great, let's move forward.\n\nQ2", r.Message)
	assert.Equal(t, "resume_followup", s.Evaluations[len(s.Evaluations)-1].Stage)
	assert.Equal(t, "Q2", s.CurrentQuestion.Text)
}

func TestLiveness_CustomFollowupModelAnswer(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldFollowUpCustom] = "yes"
	replies[SiteEvaluateCustom] = "confused"
	replies[SiteModelAnswer] = "A model answer."
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CustomQuestions: questions("C1", "C2")}, domain.DefaultInterviewLimits())

	s, rs := drive(t, h.m, s, "intro", "hobby", "motivation", "first", "again", "again")
	require.Equal(t, StageCustomQuestions, rs[2].Stage)
	assert.Equal(t, StageCustomQuestionFollowup, rs[3].Stage)
	assert.Equal(t, StageCustomQuestionFollowup, rs[5].Stage)

	s, r := h.m.ReceiveInput(context.Background(), s, "no clue")
	assert.Equal(t, StageCustomQuestions, r.Stage)
	assert.Equal(t, "No worries — let me explain.\n\nA model answer.", r.Message)
	assert.Nil(t, s.CurrentQuestion)

	s, r = h.m.ReceiveInput(context.Background(), s, "thanks")
	assert.Equal(t, StageCustomQuestions, r.Stage)
	assert.Equal(t, "C2", r.Message)
	assert.Equal(t, "C2", s.CurrentQuestion.Text)
}

func TestCustomFollowup_MixedEvaluationsGetAcknowledgement(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldFollowUpCustom] = "yes"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CustomQuestions: questions("C1")}, domain.DefaultInterviewLimits())

	// the first answer is judged clear before the follow-up starts
	s, _ = drive(t, h.m, s, "intro", "hobby", "motivation", "first")
	h.gen.set(SiteEvaluateCustom, "weak")
	s, rs := drive(t, h.m, s, "a", "b", "c")
	assert.Equal(t, "Thanks for your effort — let's continue.", rs[2].Message)
	assert.Equal(t, 0, h.gen.count(SiteModelAnswer))
	assert.Equal(t, StageCustomQuestions, s.Stage)
}

func TestLiveness_JobQnA(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldExplainRole] = "yes"
	replies[SiteRoleContinuation] = "continue"
	replies[SiteClassifyFollowup] = "question"
	replies[SiteJobQnAFinished] = "continue"
	replies[SiteAnswerJobQuestion] = "Here is the answer."
	h := newHarness(replies)
	limits := domain.DefaultInterviewLimits()
	s := h.m.NewSession("s-1", domain.InterviewConfig{JobDescription: "Build APIs."}, limits)

	s, r := h.m.ReceiveInput(context.Background(), s, "What is this role about?")
	require.Equal(t, StageExplainJobRole, r.Stage)
	assert.True(t, strings.HasSuffix(r.Message, "Do you have any questions about the role before we proceed?"))

	s, rs := drive(t, h.m, s, "How big is the team?", "What stack?")
	assert.Equal(t, StageJobQnA, rs[0].Stage)
	assert.Equal(t, "Here is the answer.\n\nDo you have any other questions about the role?", rs[0].Message)

	s, r = h.m.ReceiveInput(context.Background(), s, "And the on-call?")
	assert.Equal(t, StageIntroduction, r.Stage, "budget exhaustion returns to the unfinished intro")
	assert.True(t, s.JobQnADone)
	assert.Equal(t, "Here is the answer.\n\nThanks for your questions — let's move on.\n\nCould you tell me a bit about yourself?", r.Message)

	s, r = h.m.ReceiveInput(context.Background(), s, "I'm a backend developer.")
	assert.Equal(t, StageIcebreaker, r.Stage)
	assert.Equal(t, 1, h.gen.count(SiteShouldExplainRole), "role explanation is offered once")
}

func TestJobQnA_NoPhraseShortCircuits(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldExplainRole] = "yes"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{}, domain.DefaultInterviewLimits())
	s, _ = drive(t, h.m, s, "tell me about the job first")

	s, r := h.m.ReceiveInput(context.Background(), s, "Nope!")
	assert.Equal(t, StageIntroduction, r.Stage)
	assert.Equal(t, "Great — let's continue then.\n\nCould you tell me a bit about yourself?", r.Message)
	assert.Equal(t, 0, h.gen.count(SiteRoleContinuation))
	assert.True(t, s.JobQnADone)
}

func TestCandidateQuestions_CapWrapsUp(t *testing.T) {
	replies := happyReplies()
	replies[SiteCandidateHasQuestion] = "yes"
	replies[SiteAnswerCandidate] = "Good question."
	h := newHarness(replies)
	limits := domain.DefaultInterviewLimits()
	s := h.m.NewSession("s-1", domain.InterviewConfig{}, limits)
	s, _ = drive(t, h.m, s, "intro", "hobby", "motivation")
	require.Equal(t, StageCandidateQuestions, s.Stage)

	for i := 1; i < limits.MaxCandidateQuestions; i++ {
		var r Reply
		s, r = h.m.ReceiveInput(context.Background(), s, "What about remote work?")
		require.Equal(t, StageCandidateQuestions, r.Stage)
		assert.Equal(t, "Good question.\n\nAnything else you'd like to ask before we wrap up?", r.Message)
	}
	s, r := h.m.ReceiveInput(context.Background(), s, "And the salary band?")
	assert.True(t, r.InterviewDone)
	assert.True(t, strings.HasPrefix(r.Message, "Good question.\n\nThanks again for your thoughtful questions"))
	assert.Equal(t, limits.MaxCandidateQuestions, s.CandidateQuestions)
}

func TestCandidateQuestions_BlankInputReminds(t *testing.T) {
	h := newHarness(happyReplies())
	s := h.m.NewSession("s-1", domain.InterviewConfig{}, domain.DefaultInterviewLimits())
	s, _ = drive(t, h.m, s, "intro", "hobby", "motivation")
	_, r := h.m.ReceiveInput(context.Background(), s, "")
	assert.Equal(t, StageCandidateQuestions, r.Stage)
	assert.False(t, r.InterviewDone)
	assert.Contains(t, r.Message, "Do you have any questions for me before we wrap up?")
}

func TestWarmup_BlankInputSpendsNoBudget(t *testing.T) {
	h := newHarness(happyReplies())
	s := h.m.NewSession("s-1", domain.InterviewConfig{}, domain.DefaultInterviewLimits())

	s, _ = drive(t, h.m, s, "intro")
	require.Equal(t, StageIcebreaker, s.Stage)
	s, r := h.m.ReceiveInput(context.Background(), s, "   ")
	assert.Equal(t, StageIcebreaker, r.Stage)
	assert.Equal(t, listeningPrompt, r.Message)
	assert.Equal(t, 0, s.Icebreaker.Count)
	assert.Equal(t, 0, h.gen.count(SiteAssessIcebreaker))

	s, _ = drive(t, h.m, s, "hobby")
	require.Equal(t, StageIntroFollowup, s.Stage)
	asked := h.gen.count(SiteIntroFollowupQuestion)
	s, r = h.m.ReceiveInput(context.Background(), s, "")
	assert.Equal(t, StageIntroFollowup, r.Stage)
	assert.NotEmpty(t, r.Message)
	assert.Equal(t, 0, s.IntroFollowup.Count)
	assert.Equal(t, 0, h.gen.count(SiteAssessIntroFollowup))
	assert.Equal(t, asked+1, h.gen.count(SiteIntroFollowupQuestion), "a fresh follow-up is asked")
}

func TestCustomQuestions_FirstAnswerLoggedBeforeFollowup(t *testing.T) {
	replies := happyReplies()
	replies[SiteShouldFollowUpCustom] = "yes"
	h := newHarness(replies)
	s := h.m.NewSession("s-1", domain.InterviewConfig{CustomQuestions: questions("C1")}, domain.DefaultInterviewLimits())

	s, _ = drive(t, h.m, s, "intro", "hobby", "motivation", "first")
	require.Equal(t, StageCustomQuestionFollowup, s.Stage)
	require.NotEmpty(t, s.Evaluations)
	last := s.Evaluations[len(s.Evaluations)-1]
	assert.Equal(t, "custom", last.Stage)
	assert.Equal(t, "C1", last.Question)
	assert.Equal(t, "first", last.Response)
	assert.Equal(t, "clear", last.Evaluation)
	assert.Equal(t, 1, h.gen.count(SiteEvaluateCustom))
}
