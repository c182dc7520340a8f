package interview

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// siteMarkers identify a call site from its rendered system prompt.
var siteMarkers = []struct {
	marker string
	site   CallSite
}{
	{"The candidate is introducing themselves", SiteIntroReply},
	{"introduced themselves well enough", SiteAssessIntro},
	{"ask about the role or want it explained", SiteShouldExplainRole},
	{"Explain the role briefly", SiteExplainRole},
	{"explained the role and asked if the candidate has questions", SiteRoleContinuation},
	{"finished asking questions about the role", SiteJobQnAFinished},
	{"Classify the candidate's message", SiteClassifyFollowup},
	{"Answer the candidate's question about the role", SiteAnswerJobQuestion},
	{"icebreaker question that is not about work", SiteIcebreakerQuestion},
	{"asked the icebreaker", SiteAssessIcebreaker},
	{"motivation or background", SiteIntroFollowupQuestion},
	{"The interviewer asked:", SiteAssessIntroFollowup},
	{"Is a follow-up question needed", SiteShouldFollowUp},
	{`e.g. "I don't know."`, SiteEvaluateResume},
	{"Ask one targeted follow-up", SiteResumeFollowup},
	{"struggled with", SiteResumeClarify},
	{"drifted off topic", SiteResumeRedirect},
	{"Would a follow-up help", SiteShouldFollowUpCustom},
	{`e.g. "No idea."`, SiteEvaluateCustom},
	{"helps them clarify their point", SiteCustomFollowup},
	{"was unclear", SiteCustomClarify},
	{"went off topic", SiteCustomRedirect},
	{"Give a concise model answer", SiteModelAnswer},
	{"contain a question for the interviewer", SiteCandidateHasQuestion},
	{"Answer the candidate's question in at most three", SiteAnswerCandidate},
	{"Rate the candidate's answer", SiteRateResponse},
	{"final review of a mock interview", SiteFinalSummary},
}

func siteFor(system string) CallSite {
	for _, m := range siteMarkers {
		if strings.Contains(system, m.marker) {
			return m.site
		}
	}
	return ""
}

// fakeGenerator answers by call site. Sites without a scripted reply get
// "generated <site>".
type fakeGenerator struct {
	mu      sync.Mutex
	replies map[CallSite]string
	err     error
	calls   map[CallSite]int
}

func newFakeGenerator(replies map[CallSite]string) *fakeGenerator {
	return &fakeGenerator{replies: replies, calls: map[CallSite]int{}}
}

func (f *fakeGenerator) Complete(_ context.Context, msgs []domain.Message) (string, error) {
	site := siteFor(msgs[0].Content)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[site]++
	if f.err != nil {
		return "", f.err
	}
	if r, ok := f.replies[site]; ok {
		return r, nil
	}
	return "generated " + string(site), nil
}

func (f *fakeGenerator) set(site CallSite, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[site] = reply
}

func (f *fakeGenerator) count(site CallSite) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[site]
}

type fakeSink struct {
	mu            sync.Mutex
	transcripts   []domain.Transcript
	feedbacks     []domain.Feedback
	transcriptErr error
	feedbackErr   error
}

func (s *fakeSink) SaveTranscript(_ context.Context, t domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, t)
	return s.transcriptErr
}

func (s *fakeSink) SaveFeedback(_ context.Context, f domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedbacks = append(s.feedbacks, f)
	return s.feedbackErr
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// happyReplies drives every decision forward.
func happyReplies() map[CallSite]string {
	return map[CallSite]string{
		SiteShouldExplainRole:    "no",
		SiteAssessIntro:          "continue",
		SiteAssessIcebreaker:     "valid",
		SiteAssessIntroFollowup:  "strong",
		SiteShouldFollowUp:       "no",
		SiteEvaluateResume:       "clear",
		SiteShouldFollowUpCustom: "no",
		SiteEvaluateCustom:       "clear",
		SiteCandidateHasQuestion: "no",
		SiteRateResponse:         `{"knowledge_rating": 8, "emotion": "confident"}`,
		SiteFinalSummary:         `{"summary": "Solid answers.", "key_strengths": ["Clear"], "improvement_areas": ["Depth"], "overall_rating": 8}`,
	}
}

type harness struct {
	gen   *fakeGenerator
	sink  *fakeSink
	clock *fakeClock
	m     *Machine
}

func newHarness(replies map[CallSite]string) *harness {
	h := &harness{
		gen:   newFakeGenerator(replies),
		sink:  &fakeSink{},
		clock: &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	h.m = NewMachine(h.gen,
		WithSink(h.sink),
		WithClock(h.clock.Now),
		WithRandom(func(int) int { return 0 }),
	)
	return h
}

func questions(texts ...string) []domain.Question {
	out := make([]domain.Question, len(texts))
	for i, t := range texts {
		out[i] = domain.Question{Text: t, Difficulty: domain.DifficultyMedium, Weight: 3}
	}
	return out
}

// drive feeds inputs in order and returns the final state and every reply.
func drive(t *testing.T, m *Machine, s SessionState, inputs ...string) (SessionState, []Reply) {
	t.Helper()
	replies := make([]Reply, 0, len(inputs))
	for _, in := range inputs {
		var r Reply
		s, r = m.ReceiveInput(context.Background(), s, in)
		require.NotEmpty(t, r.Message, "input %q produced an empty reply", in)
		replies = append(replies, r)
	}
	return s, replies
}
