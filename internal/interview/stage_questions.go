package interview

import (
	"context"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// Evaluation log stage names.
const (
	entryResume         = "resume"
	entryResumeFollowup = "resume_followup"
	entryCustom         = "custom"
	entryCustomFollowup = "custom_followup"
)

const (
	followupLimitNote   = "[Follow-up limit reached]"
	resumeWrapLead      = "Thanks! That wraps up the resume part."
	resumeGiveUpMessage = "That's okay — let's move to the next topic."
	explainLead         = "No worries — let me explain."
	customGiveUpMessage = "Thanks for your effort — let's continue."
)

var resumeTransitions = []string{
	"Great, let's move forward.",
	"Alright, here's another one.",
	"Sounds good — next question coming up.",
	"Thanks for that! Let's continue.",
	"Got it. Let's dive into the next one.",
	"That makes sense. Here's the next one.",
	"Perfect — moving on.",
	"Appreciate that. Let's go ahead.",
	"Cool. Let's tackle the next question.",
	"Awesome. Here comes another one.",
}

var customTransitions = []string{
	"Great insight! Let's try the next one.",
	"Understood — here's the next question.",
	"Appreciate that. Let's keep going.",
	"Alright, moving on to the next one.",
	"Clear answer. Here's something else for you.",
	"Got it! Let's continue the conversation.",
	"Thanks! I have another question for you.",
	"Sounds good — next up!",
	"Cool. Let's keep it flowing.",
	"That works. Let's move forward.",
}

// ask poses a queued question and copies its code requirements onto the reply.
func ask(s *SessionState, lead string, q domain.Question) Reply {
	r := say(s, lead, q.Text)
	r.RequiresCode = q.RequiresCode
	r.CodeLanguage = q.CodeLanguage
	return r
}

func logEntry(s *SessionState, stage, question, response string, label Label) {
	s.Evaluations = append(s.Evaluations, domain.EvaluationEntry{
		Stage:      stage,
		Question:   question,
		Response:   response,
		Evaluation: string(label),
	})
}

// enterResume pops the next core question. An empty queue moves on to the
// custom questions.
func (m *Machine) enterResume(ctx context.Context, s *SessionState, lead string) Reply {
	q, rest, ok := popQuestion(s.ResumeQueue)
	if !ok {
		s.CurrentQuestion = nil
		return m.enterCustom(ctx, s, lead)
	}
	s.ResumeQueue = rest
	s.CurrentQuestion = &q
	s.ResumeFollowup = s.ResumeFollowup.Reset()
	s.PendingPrompt = ""
	m.moveTo(ctx, s, StageResumeDiscussion)
	return ask(s, lead, q)
}

// nextResume moves past the current core question.
func (m *Machine) nextResume(ctx context.Context, s *SessionState, transition string) Reply {
	s.CurrentQuestion = nil
	if len(s.ResumeQueue) > 0 {
		return m.enterResume(ctx, s, transition)
	}
	if len(s.CustomQueue) > 0 {
		return m.enterCustom(ctx, s, join(transition, resumeWrapLead))
	}
	return m.enterCandidate(ctx, s, transition)
}

func (m *Machine) handleResumeDiscussion(ctx context.Context, s *SessionState, input string) Reply {
	if s.CurrentQuestion == nil {
		return m.enterResume(ctx, s, "")
	}
	if input == "" {
		return say(s, "", listeningPrompt)
	}
	s.Memory.LastResumeReply = input

	data := baseData(s)
	data.Question = s.CurrentQuestion.Text
	data.Answer = input
	if m.classifier.Decide(ctx, SiteShouldFollowUp, data, nil, "") == LabelYes {
		m.moveTo(ctx, s, StageCoreQuestionFollowup)
		f := m.classifier.Generate(ctx, SiteResumeFollowup, data, nil, "")
		s.PendingPrompt = f
		return say(s, "", f)
	}

	label := m.classifier.Decide(ctx, SiteEvaluateResume, data, nil, "")
	logEntry(s, entryResume, s.CurrentQuestion.Text, input, label)
	return m.nextResume(ctx, s, m.pick(resumeTransitions))
}

func (m *Machine) handleCoreFollowup(ctx context.Context, s *SessionState, input string) Reply {
	if s.CurrentQuestion == nil {
		return m.nextResume(ctx, s, "")
	}
	if input == "" {
		return say(s, "", listeningPrompt)
	}
	s.Memory.LastResumeReply = input
	prompt := s.PendingPrompt
	if prompt == "" {
		prompt = s.CurrentQuestion.Text
	}

	data := baseData(s)
	data.Question = prompt
	data.Answer = input
	label := m.classifier.Decide(ctx, SiteEvaluateResume, data, nil, "")
	logEntry(s, entryResumeFollowup, prompt, input, label)

	if !label.Negative() {
		s.ResumeFollowup = s.ResumeFollowup.Reset()
		return m.nextResume(ctx, s, m.pick(resumeTransitions))
	}
	s.ResumeFollowup = s.ResumeFollowup.Record()
	if s.ResumeFollowup.Exhausted() {
		logEntry(s, entryResumeFollowup, prompt, followupLimitNote, LabelNoAnswer)
		return m.nextResume(ctx, s, resumeGiveUpMessage)
	}

	data.Question = s.CurrentQuestion.Text
	var next string
	switch {
	case label == LabelOffTopic:
		next = m.classifier.Generate(ctx, SiteResumeRedirect, data, nil, "")
	case s.ResumeFollowup.Count == 1:
		next = m.classifier.Generate(ctx, SiteResumeClarify, data, nil, "")
	default:
		next = m.classifier.Generate(ctx, SiteResumeFollowup, data, nil, "")
	}
	s.PendingPrompt = next
	return say(s, "", next)
}

// enterCustom pops the next custom question. An empty queue moves on to
// the candidate's questions.
func (m *Machine) enterCustom(ctx context.Context, s *SessionState, lead string) Reply {
	q, rest, ok := popQuestion(s.CustomQueue)
	if !ok {
		s.CurrentQuestion = nil
		return m.enterCandidate(ctx, s, lead)
	}
	s.CustomQueue = rest
	s.CurrentQuestion = &q
	s.CustomFollowup = s.CustomFollowup.Reset()
	s.CustomEvaluations = nil
	s.PendingPrompt = ""
	m.moveTo(ctx, s, StageCustomQuestions)
	return ask(s, lead, q)
}

func (m *Machine) nextCustom(ctx context.Context, s *SessionState, transition string) Reply {
	s.CurrentQuestion = nil
	return m.enterCustom(ctx, s, transition)
}

func (m *Machine) handleCustomQuestions(ctx context.Context, s *SessionState, input string) Reply {
	if s.CurrentQuestion == nil {
		// previous question ended on the follow-up limit; this input only
		// resumes the flow
		return m.enterCustom(ctx, s, "")
	}
	if input == "" {
		return say(s, "", listeningPrompt)
	}
	s.Memory.LastCustomReply = input

	data := baseData(s)
	data.Question = s.CurrentQuestion.Text
	data.Answer = input
	if m.classifier.Decide(ctx, SiteShouldFollowUpCustom, data, nil, "") == LabelYes {
		label := m.classifier.Decide(ctx, SiteEvaluateCustom, data, nil, "")
		s.CustomEvaluations = append(s.CustomEvaluations, label)
		logEntry(s, entryCustom, s.CurrentQuestion.Text, input, label)
		m.moveTo(ctx, s, StageCustomQuestionFollowup)
		f := m.classifier.Generate(ctx, SiteCustomFollowup, data, nil, "")
		s.PendingPrompt = f
		return say(s, "", f)
	}

	label := m.classifier.Decide(ctx, SiteEvaluateCustom, data, nil, "")
	logEntry(s, entryCustom, s.CurrentQuestion.Text, input, label)
	return m.nextCustom(ctx, s, m.pick(customTransitions))
}

func (m *Machine) handleCustomFollowup(ctx context.Context, s *SessionState, input string) Reply {
	if s.CurrentQuestion == nil {
		return m.nextCustom(ctx, s, "")
	}
	if input == "" {
		return say(s, "", listeningPrompt)
	}
	s.Memory.LastCustomReply = input
	prompt := s.PendingPrompt
	if prompt == "" {
		prompt = s.CurrentQuestion.Text
	}

	data := baseData(s)
	data.Question = prompt
	data.Answer = input
	label := m.classifier.Decide(ctx, SiteEvaluateCustom, data, nil, "")
	s.CustomEvaluations = append(s.CustomEvaluations, label)
	logEntry(s, entryCustomFollowup, prompt, input, label)

	if !label.Negative() {
		s.CustomFollowup = s.CustomFollowup.Reset()
		return m.nextCustom(ctx, s, m.pick(customTransitions))
	}
	s.CustomFollowup = s.CustomFollowup.Record()
	data.Question = s.CurrentQuestion.Text
	if s.CustomFollowup.Exhausted() {
		msg := customGiveUpMessage
		if allNegative(s.CustomEvaluations) {
			data.Evaluations = labelsToStrings(s.CustomEvaluations)
			msg = join(explainLead, m.classifier.Generate(ctx, SiteModelAnswer, data, nil, ""))
		}
		logEntry(s, entryCustomFollowup, prompt, followupLimitNote, LabelNoAnswer)
		s.CurrentQuestion = nil
		s.PendingPrompt = ""
		m.moveTo(ctx, s, StageCustomQuestions)
		return say(s, "", msg)
	}

	var next string
	switch {
	case label == LabelOffTopic:
		next = m.classifier.Generate(ctx, SiteCustomRedirect, data, nil, "")
	case s.CustomFollowup.Count == 1:
		next = m.classifier.Generate(ctx, SiteCustomClarify, data, nil, "")
	default:
		data.Answer = input
		next = m.classifier.Generate(ctx, SiteCustomFollowup, data, nil, "")
	}
	s.PendingPrompt = next
	return say(s, "", next)
}

func allNegative(labels []Label) bool {
	if len(labels) == 0 {
		return false
	}
	for _, l := range labels {
		if !l.Negative() {
			return false
		}
	}
	return true
}

func labelsToStrings(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out
}
