package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/pkg/textx"
)

const (
	defaultRating    = 5
	unknownEmotion   = "unknown"
	neutralEmotion   = "neutral"
	summaryAttempts  = 2
	maxPromptAnswers = 40
)

// Rating is the per-answer judgement attached during final analysis.
type Rating struct {
	KnowledgeRating int
	Emotion         string
}

// flexNumber accepts 7, 7.5 or "7".
type flexNumber struct {
	Value float64
	Set   bool
}

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	f.Value, f.Set = v, true
	return nil
}

// flexList accepts either a JSON array of strings or one newline separated string.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = cleanList(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = cleanList(strings.Split(s, "\n"))
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ExtractRating parses the rating reply. Valid JSON, JSON wrapped in prose
// and JSON with trailing commas are accepted; anything else yields
// {5, "unknown"}. Missing fields default to 5 and "neutral".
func ExtractRating(raw string) Rating {
	fallback := Rating{KnowledgeRating: defaultRating, Emotion: unknownEmotion}
	obj, ok := textx.ExtractJSONObject(raw)
	if !ok {
		return fallback
	}
	var payload struct {
		KnowledgeRating flexNumber `json:"knowledge_rating"`
		Emotion         string     `json:"emotion"`
	}
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return fallback
	}
	r := Rating{KnowledgeRating: defaultRating, Emotion: neutralEmotion}
	if payload.KnowledgeRating.Set {
		r.KnowledgeRating = clampRating(int(math.Round(payload.KnowledgeRating.Value)))
	}
	if e := strings.ToLower(strings.TrimSpace(payload.Emotion)); e != "" {
		r.Emotion = e
	}
	return r
}

func clampRating(v int) int {
	switch {
	case v < 1:
		return 1
	case v > 10:
		return 10
	}
	return v
}

// Aggregator turns the evaluation log into the final feedback.
type Aggregator struct {
	classifier  *Classifier
	concurrency int
}

// NewAggregator rates up to concurrency entries in parallel.
func NewAggregator(c *Classifier, concurrency int) *Aggregator {
	return &Aggregator{classifier: c, concurrency: concurrency}
}

// Analyze returns rated copies of entries in the same order. The input is
// left untouched and no entry is ever dropped.
func (a *Aggregator) Analyze(ctx context.Context, entries []domain.EvaluationEntry) []domain.EvaluationEntry {
	out := cloneEntries(entries)
	if len(out) == 0 {
		return out
	}
	workers := a.concurrency
	if workers < 1 {
		workers = 1
	}
	p := pool.New().WithMaxGoroutines(workers)
	for i := range out {
		p.Go(func() {
			data := promptData{Question: out[i].Question, Answer: out[i].Response}
			r := ExtractRating(a.classifier.Generate(ctx, SiteRateResponse, data, nil, ""))
			rating := r.KnowledgeRating
			out[i].KnowledgeRating = &rating
			out[i].Emotion = r.Emotion
		})
	}
	p.Wait()
	return out
}

// ComputeStats derives the aggregate numbers in code. With no entries the
// average is the neutral 5.
func ComputeStats(entries []domain.EvaluationEntry) domain.FeedbackStats {
	st := domain.FeedbackStats{TotalResponses: len(entries), AverageRating: defaultRating}
	if len(entries) == 0 {
		return st
	}
	sum := 0
	for _, e := range entries {
		if e.KnowledgeRating != nil {
			sum += *e.KnowledgeRating
		} else {
			sum += defaultRating
		}
		switch Label(e.Evaluation) {
		case LabelWeak, LabelConfused:
			st.WeakResponses++
		case LabelStrong, LabelClear, "good":
			st.StrongResponses++
		}
		switch e.Emotion {
		case "nervous":
			st.NervousCount++
		case "unsure":
			st.UnsureCount++
		}
	}
	st.AverageRating = math.Round(float64(sum)/float64(len(entries))*10) / 10
	return st
}

type summaryPayload struct {
	Summary          string     `json:"summary"`
	KeyStrengths     flexList   `json:"key_strengths"`
	ImprovementAreas flexList   `json:"improvement_areas"`
	OverallRating    flexNumber `json:"overall_rating"`
}

// Summarize builds the feedback. The generator writes the prose; when it
// fails twice the summary is templated from the statistics, so the result
// is never empty.
func (a *Aggregator) Summarize(ctx context.Context, jobTitle string, turns []domain.Message, entries []domain.EvaluationEntry) domain.Feedback {
	stats := ComputeStats(entries)
	fb := domain.Feedback{
		JobTitle:      jobTitle,
		Stats:         stats,
		Entries:       entries,
		OverallRating: stats.AverageRating,
	}
	if len(entries) > 0 {
		data := promptData{JobTitle: jobTitle, Stats: stats, Responses: renderResponses(entries)}
		for attempt := 1; attempt <= summaryAttempts; attempt++ {
			res := a.classifier.Call(ctx, SiteFinalSummary, data, tailForSummary(turns), "")
			if res.Err != nil {
				a.classifier.fellBack(ctx, SiteFinalSummary, "error", res.Err)
				continue
			}
			p, ok := parseSummary(res.Text)
			if !ok {
				observability.LoggerFromContext(ctx).Warn("final summary unparsed",
					slog.Int("attempt", attempt),
					slog.String("reply", truncateForLog(res.Text)))
				continue
			}
			fb.Summary = strings.TrimSpace(p.Summary)
			fb.KeyStrengths = []string(p.KeyStrengths)
			fb.ImprovementAreas = []string(p.ImprovementAreas)
			if p.OverallRating.Set && p.OverallRating.Value >= 1 && p.OverallRating.Value <= 10 {
				fb.OverallRating = math.Round(p.OverallRating.Value*10) / 10
			}
			return fb
		}
		a.classifier.fellBack(ctx, SiteFinalSummary, "templated", nil)
	}
	fb.Summary, fb.KeyStrengths, fb.ImprovementAreas = templatedSummary(jobTitle, stats)
	fb.Templated = true
	return fb
}

func parseSummary(raw string) (summaryPayload, bool) {
	var p summaryPayload
	obj, ok := textx.ExtractJSONObject(raw)
	if !ok {
		return p, false
	}
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return p, false
	}
	return p, strings.TrimSpace(p.Summary) != ""
}

func renderResponses(entries []domain.EvaluationEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i == maxPromptAnswers {
			fmt.Fprintf(&b, "... %d more\n", len(entries)-i)
			break
		}
		rating := defaultRating
		if e.KnowledgeRating != nil {
			rating = *e.KnowledgeRating
		}
		fmt.Fprintf(&b, "- [%s] Q: %s | A: %s | judged %s, rating %d, tone %s\n",
			e.Stage, e.Question, textx.Truncate(e.Response, 400), e.Evaluation, rating, e.Emotion)
	}
	return b.String()
}

func tailForSummary(turns []domain.Message) []domain.Message {
	const keep = 20
	if len(turns) <= keep {
		return turns
	}
	return turns[len(turns)-keep:]
}

func templatedSummary(jobTitle string, st domain.FeedbackStats) (string, []string, []string) {
	if st.TotalResponses == 0 {
		return fmt.Sprintf("Interview evaluation completed for %s position. Detailed analysis available in transcript and evaluation data.", jobTitle),
			[]string{"1. Participated in the interview process"},
			[]string{"1. Technical knowledge and communication skills need development"}
	}

	avg := st.AverageRating
	var summary string
	switch {
	case avg >= 7:
		summary = fmt.Sprintf("Based on the evaluated answers, the candidate demonstrates strong knowledge of %s concepts with an average rating of %.1f/10. Their responses show confidence and technical competence. Overall, a strong fit for the %s position.", jobTitle, avg, jobTitle)
	case avg >= 5:
		summary = fmt.Sprintf("Based on the evaluated answers, the candidate shows mixed performance with an average rating of %.1f/10. They demonstrate some understanding but have areas for improvement. Overall, an average fit for the %s position.", avg, jobTitle)
	default:
		summary = fmt.Sprintf("Based on the evaluated answers, the candidate struggled to demonstrate knowledge of %s concepts, with an average rating of %.1f/10. Their responses lacked confidence and clarity. Overall, a weak fit for the %s position.", jobTitle, avg, jobTitle)
	}

	var strengths []string
	if avg >= 6 {
		strengths = append(strengths, fmt.Sprintf("Demonstrated good technical knowledge (average rating: %.1f/10)", avg))
	}
	if st.StrongResponses > 0 {
		strengths = append(strengths, fmt.Sprintf("Gave strong responses in %d out of %d questions", st.StrongResponses, st.TotalResponses))
	}
	strengths = append(strengths, "Participated actively in the interview process", "Maintained professional demeanor throughout")

	var improvements []string
	if avg < 6 {
		improvements = append(improvements, fmt.Sprintf("Technical knowledge needs improvement (current average: %.1f/10)", avg))
	}
	if st.WeakResponses > 0 {
		improvements = append(improvements, fmt.Sprintf("Struggled with %d out of %d questions", st.WeakResponses, st.TotalResponses))
	}
	if st.NervousCount > 0 {
		improvements = append(improvements, fmt.Sprintf("Confidence issues (nervous in %d responses)", st.NervousCount))
	}
	if st.UnsureCount > 0 {
		improvements = append(improvements, fmt.Sprintf("Decision-making needs improvement (unsure in %d responses)", st.UnsureCount))
	}
	improvements = append(improvements, "Communication skills and detailed explanations need enhancement")

	return summary, numbered(strengths), numbered(improvements)
}

func numbered(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, it)
	}
	return out
}
