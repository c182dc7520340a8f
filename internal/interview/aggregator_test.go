package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

func TestExtractRating(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Rating
	}{
		{"embedded in prose", `noise {"knowledge_rating":7,"emotion":"confident"} trailing`, Rating{7, "confident"}},
		{"not json", "not json at all", Rating{5, "unknown"}},
		{"plain", `{"knowledge_rating": 9, "emotion": "Enthusiastic"}`, Rating{9, "enthusiastic"}},
		{"code fence", "```json\n{\"knowledge_rating\": 3, \"emotion\": \"nervous\"}\n```", Rating{3, "nervous"}},
		{"string rating", `{"knowledge_rating": "6", "emotion": "neutral"}`, Rating{6, "neutral"}},
		{"trailing comma", `{"knowledge_rating": 4, "emotion": "unsure",}`, Rating{4, "unsure"}},
		{"missing fields", `{}`, Rating{5, "neutral"}},
		{"clamped high", `{"knowledge_rating": 42}`, Rating{10, "neutral"}},
		{"clamped low", `{"knowledge_rating": -3, "emotion": "evasive"}`, Rating{1, "evasive"}},
		{"bad rating type", `{"knowledge_rating": "high"}`, Rating{5, "unknown"}},
		{"empty", "", Rating{5, "unknown"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRating(tt.raw))
		})
	}
}

func entriesOf(labels ...string) []domain.EvaluationEntry {
	out := make([]domain.EvaluationEntry, len(labels))
	for i, l := range labels {
		out[i] = domain.EvaluationEntry{Stage: "resume", Question: fmt.Sprintf("Q%d", i), Response: fmt.Sprintf("A%d", i), Evaluation: l}
	}
	return out
}

func TestAggregator_AnalyzeKeepsOrderAndInput(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, msgs []domain.Message) (string, error) {
		// rating equals the question index + 1
		for i := 0; i < 10; i++ {
			if strings.Contains(msgs[0].Content, fmt.Sprintf(`Question: "Q%d"`, i)) {
				return fmt.Sprintf(`{"knowledge_rating": %d, "emotion": "neutral"}`, i+1), nil
			}
		}
		return "", errors.New("unexpected prompt")
	})
	a := NewAggregator(NewClassifier(gen), 3)
	in := entriesOf("clear", "weak", "clear", "confused", "clear", "no_answer", "clear")

	out := a.Analyze(context.Background(), in)
	require.Len(t, out, len(in))
	for i, e := range out {
		require.NotNil(t, e.KnowledgeRating)
		assert.Equal(t, i+1, *e.KnowledgeRating)
		assert.Equal(t, in[i].Question, e.Question)
		assert.Nil(t, in[i].KnowledgeRating, "input is not mutated")
	}
}

func TestAggregator_AnalyzeMalformedKeepsEntry(t *testing.T) {
	gen := generatorFunc(func(context.Context, []domain.Message) (string, error) {
		return "I'd say pretty good", nil
	})
	out := NewAggregator(NewClassifier(gen), 1).Analyze(context.Background(), entriesOf("clear"))
	require.Len(t, out, 1)
	assert.Equal(t, 5, *out[0].KnowledgeRating)
	assert.Equal(t, "unknown", out[0].Emotion)
}

func rated(rating int, evaluation, emotion string) domain.EvaluationEntry {
	return domain.EvaluationEntry{Question: "q", Response: "a", Evaluation: evaluation, KnowledgeRating: &rating, Emotion: emotion}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]domain.EvaluationEntry{
		rated(8, "clear", "confident"),
		rated(4, "weak", "nervous"),
		rated(3, "confused", "unsure"),
		rated(6, "no_answer", "nervous"),
	})
	assert.Equal(t, 4, st.TotalResponses)
	assert.InDelta(t, 5.3, st.AverageRating, 0.001)
	assert.Equal(t, 2, st.WeakResponses)
	assert.Equal(t, 1, st.StrongResponses)
	assert.Equal(t, 2, st.NervousCount)
	assert.Equal(t, 1, st.UnsureCount)

	empty := ComputeStats(nil)
	assert.Equal(t, 0, empty.TotalResponses)
	assert.InDelta(t, 5.0, empty.AverageRating, 0.001)
}

func TestAggregator_SummarizeFromGenerator(t *testing.T) {
	gen := newFakeGenerator(map[CallSite]string{
		SiteFinalSummary: "Here you go:\n" + `{"summary":"Strong fit.","key_strengths":"1. Clear\n2. Calm","improvement_areas":["Depth"],"overall_rating":"7.5"}`,
	})
	fb := NewAggregator(NewClassifier(gen), 1).Summarize(context.Background(), "SRE", nil, []domain.EvaluationEntry{rated(7, "clear", "confident")})

	assert.False(t, fb.Templated)
	assert.Equal(t, "Strong fit.", fb.Summary)
	assert.Equal(t, []string{"1. Clear", "2. Calm"}, fb.KeyStrengths)
	assert.Equal(t, []string{"Depth"}, fb.ImprovementAreas)
	assert.InDelta(t, 7.5, fb.OverallRating, 0.001)
	assert.Equal(t, 1, gen.count(SiteFinalSummary))
}

func TestAggregator_SummarizeFallsBackAfterTwoBadReplies(t *testing.T) {
	gen := newFakeGenerator(map[CallSite]string{SiteFinalSummary: "Sorry, I can't produce JSON."})
	entries := []domain.EvaluationEntry{rated(8, "clear", "confident"), rated(7, "clear", "nervous")}
	fb := NewAggregator(NewClassifier(gen), 1).Summarize(context.Background(), "SRE", nil, entries)

	assert.True(t, fb.Templated)
	assert.Equal(t, 2, gen.count(SiteFinalSummary))
	assert.Contains(t, fb.Summary, "strong fit for the SRE position")
	assert.InDelta(t, 7.5, fb.OverallRating, 0.001)
	assert.Equal(t, "1. Demonstrated good technical knowledge (average rating: 7.5/10)", fb.KeyStrengths[0])
	assert.Equal(t, "2. Gave strong responses in 2 out of 2 questions", fb.KeyStrengths[1])
	assert.Equal(t, "1. Confidence issues (nervous in 1 responses)", fb.ImprovementAreas[0])
}

func TestAggregator_SummarizeBands(t *testing.T) {
	gen := newFakeGenerator(nil)
	gen.err = errors.New("down")
	a := NewAggregator(NewClassifier(gen), 1)

	avg := a.Summarize(context.Background(), "QA", nil, []domain.EvaluationEntry{rated(5, "weak", "neutral")})
	assert.Contains(t, avg.Summary, "average fit")
	weak := a.Summarize(context.Background(), "QA", nil, []domain.EvaluationEntry{rated(2, "confused", "unsure")})
	assert.Contains(t, weak.Summary, "weak fit")
	assert.Equal(t, "1. Technical knowledge needs improvement (current average: 2.0/10)", weak.ImprovementAreas[0])
}

func TestAggregator_SummarizeWithoutResponses(t *testing.T) {
	gen := newFakeGenerator(nil)
	fb := NewAggregator(NewClassifier(gen), 1).Summarize(context.Background(), "Data Engineer", nil, nil)
	assert.True(t, fb.Templated)
	assert.Equal(t, "Interview evaluation completed for Data Engineer position. Detailed analysis available in transcript and evaluation data.", fb.Summary)
	assert.Equal(t, 0, gen.count(SiteFinalSummary))
	assert.NotEmpty(t, fb.KeyStrengths)
	assert.NotEmpty(t, fb.ImprovementAreas)
}
