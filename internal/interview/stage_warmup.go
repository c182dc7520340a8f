package interview

import "context"

const (
	icebreakerPassedLead    = "Thanks for sharing that!"
	icebreakerExhaustedLead = "Let's move on anyway. Thanks!"
	followupPassedLead      = "Thanks for sharing that! Let's continue with your resume."
	followupExhaustedLead   = "Thanks! Let's continue with your resume."
)

// enterIcebreaker asks an icebreaker. Configured icebreakers are used in
// order, one per attempt; once they run out the generator writes new ones.
func (m *Machine) enterIcebreaker(ctx context.Context, s *SessionState, lead string) Reply {
	m.moveTo(ctx, s, StageIcebreaker)
	q := m.nextIcebreaker(ctx, s)
	s.PendingPrompt = q
	return say(s, lead, q)
}

func (m *Machine) nextIcebreaker(ctx context.Context, s *SessionState) string {
	if i := s.Icebreaker.Count; i < len(s.Config.Icebreakers) && s.Config.Icebreakers[i] != "" {
		return s.Config.Icebreakers[i]
	}
	data := baseData(s)
	data.Previous = s.PendingPrompt
	return m.classifier.Generate(ctx, SiteIcebreakerQuestion, data, nil, "")
}

func (m *Machine) handleIcebreaker(ctx context.Context, s *SessionState, input string) Reply {
	if input == "" {
		return say(s, "", listeningPrompt)
	}
	data := baseData(s)
	data.Question = s.PendingPrompt
	if m.classifier.Decide(ctx, SiteAssessIcebreaker, data, nil, input) == LabelValid {
		s.Icebreaker = s.Icebreaker.Reset()
		return m.enterIntroFollowup(ctx, s, icebreakerPassedLead)
	}
	s.Icebreaker = s.Icebreaker.Record()
	if s.Icebreaker.Exhausted() {
		return m.enterIntroFollowup(ctx, s, icebreakerExhaustedLead)
	}
	q := m.nextIcebreaker(ctx, s)
	s.PendingPrompt = q
	return say(s, "", q)
}

func (m *Machine) enterIntroFollowup(ctx context.Context, s *SessionState, lead string) Reply {
	m.moveTo(ctx, s, StageIntroFollowup)
	return say(s, lead, m.nextIntroFollowup(ctx, s))
}

func (m *Machine) nextIntroFollowup(ctx context.Context, s *SessionState) string {
	data := baseData(s)
	data.Previous = s.PendingPrompt
	q := m.classifier.Generate(ctx, SiteIntroFollowupQuestion, data, s.Log.Turns(), "")
	s.PendingPrompt = q
	return q
}

// handleIntroFollowup re-asks on a blank reply without spending the budget.
func (m *Machine) handleIntroFollowup(ctx context.Context, s *SessionState, input string) Reply {
	if input == "" {
		return say(s, "", m.nextIntroFollowup(ctx, s))
	}
	data := baseData(s)
	data.Question = s.PendingPrompt
	if m.classifier.Decide(ctx, SiteAssessIntroFollowup, data, nil, input) == LabelStrong {
		s.IntroFollowup = s.IntroFollowup.Reset()
		return m.enterResume(ctx, s, followupPassedLead)
	}
	s.IntroFollowup = s.IntroFollowup.Record()
	if s.IntroFollowup.Exhausted() {
		return m.enterResume(ctx, s, followupExhaustedLead)
	}
	return say(s, "", m.nextIntroFollowup(ctx, s))
}
