package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/sourcegraph/conc/pool"

	obsmetrics "github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/pkg/textx"
)

const maxContextChars = 12000

var errNoGenerator = errors.New("generator not configured")

var bucketPrompt = template.Must(template.New("bucket").Parse(`You are preparing interview questions for the role of {{.JobTitle}}.
{{- if eq .Source "resume"}}
Source: the candidate's resume only.
Resume:
{{.Resume}}
{{- else if eq .Source "jd"}}
Source: the job description only.
Job description:
{{.JobDescription}}
{{- else}}
Source: combine the candidate's resume ({{.ResumePct}}%) with the job description ({{.JDPct}}%) in every question.
Resume:
{{.Resume}}
Job description:
{{.JobDescription}}
{{- end}}

Generate exactly {{.Count}} unique {{if .Technical}}TECHNICAL{{else}}NON-TECHNICAL{{end}} questions with difficulty "{{.Difficulty}}".
{{- if .Technical}}
Each question must require the candidate to write code or a concrete technical example, not only an explanation.
{{- else}}
Questions must not require code in the answer.
{{- end}}
Return only a JSON array of {{.Count}} objects, no markdown and no text around it:
[{"question": "...", "difficulty": "{{.Difficulty}}", "weight": {{.Weight}}{{if .Technical}}, "code_language": "..."{{end}}}]`))

type bucketPromptData struct {
	Bucket
	Weight         int
	JobTitle       string
	JobDescription string
	Resume         string
	ResumePct      int
	JDPct          int
}

type generatedQuestion struct {
	Question     string `json:"question"`
	CodeLanguage string `json:"code_language"`
}

// Planner generates question sets.
type Planner struct {
	gen         domain.Generator
	retries     int
	concurrency int
}

// New returns a planner making up to retries attempts per bucket and at most
// concurrency generator calls at once.
func New(gen domain.Generator, retries, concurrency int) *Planner {
	if retries < 1 {
		retries = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Planner{gen: gen, retries: retries, concurrency: concurrency}
}

// Generate produces exactly req.Beginner + req.Medium + req.Hard questions,
// ordered beginner, medium, hard. A bucket the generator cannot fill is
// padded with placeholders; only a cancelled context fails the batch.
func (p *Planner) Generate(ctx context.Context, req domain.PlanRequest) ([]domain.Question, error) {
	if req.Total() <= 0 || req.Beginner < 0 || req.Medium < 0 || req.Hard < 0 {
		return nil, fmt.Errorf("op=planner.Generate: %w: no questions requested", domain.ErrInvalidArgument)
	}
	buckets := Buckets(req)
	results := make([][]domain.Question, len(buckets))

	wp := pool.New().WithMaxGoroutines(p.concurrency)
	for i, b := range buckets {
		wp.Go(func() {
			results[i] = p.fillBucket(ctx, req, b)
		})
	}
	wp.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("op=planner.Generate: %w", err)
	}

	out := make([]domain.Question, 0, req.Total())
	for _, d := range domain.Difficulties {
		for i, b := range buckets {
			if b.Difficulty == d {
				out = append(out, results[i]...)
			}
		}
	}
	return out, nil
}

// fillBucket asks for b.Count questions, retrying on a size mismatch. The
// last attempt is trimmed or padded to size.
func (p *Planner) fillBucket(ctx context.Context, req domain.PlanRequest, b Bucket) []domain.Question {
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("difficulty", string(b.Difficulty)),
		slog.String("source", b.Source),
		slog.Bool("technical", b.Technical),
		slog.Int("count", b.Count))

	var got []generatedQuestion
	for attempt := 1; attempt <= p.retries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		qs, err := p.requestBucket(ctx, req, b)
		if err != nil {
			lg.Warn("bucket generation failed", slog.Int("attempt", attempt), slog.Any("error", err))
			continue
		}
		got = qs
		if len(qs) == b.Count {
			obsmetrics.PlannerBucketsTotal.WithLabelValues("ok").Inc()
			return finalize(b, qs)
		}
		lg.Warn("bucket size mismatch", slog.Int("attempt", attempt), slog.Int("got", len(qs)))
	}

	outcome := "padded"
	if len(got) == 0 {
		outcome = "fallback"
	}
	obsmetrics.PlannerBucketsTotal.WithLabelValues(outcome).Inc()
	if len(got) > b.Count {
		got = got[:b.Count]
	}
	for len(got) < b.Count {
		got = append(got, generatedQuestion{Question: fmt.Sprintf("Fallback %s question", b.Difficulty)})
	}
	return finalize(b, got)
}

func (p *Planner) requestBucket(ctx context.Context, req domain.PlanRequest, b Bucket) ([]generatedQuestion, error) {
	if p.gen == nil {
		return nil, errNoGenerator
	}
	var buf bytes.Buffer
	err := bucketPrompt.Execute(&buf, bucketPromptData{
		Bucket:         b,
		Weight:         b.Difficulty.Weight(),
		JobTitle:       req.JobTitle,
		JobDescription: textx.Truncate(req.JobDescription, maxContextChars),
		Resume:         textx.Truncate(req.ResumeText, maxContextChars),
		ResumePct:      clampPct(req.ResumePct),
		JDPct:          100 - clampPct(req.ResumePct),
	})
	if err != nil {
		return nil, err
	}
	raw, err := p.gen.Complete(ctx, []domain.Message{{Role: domain.RoleSystem, Content: buf.String()}})
	if err != nil {
		return nil, err
	}
	arr, ok := textx.ExtractJSONArray(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in reply", domain.ErrSchemaInvalid)
	}
	var qs []generatedQuestion
	if err := json.Unmarshal([]byte(arr), &qs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	kept := qs[:0]
	for _, q := range qs {
		if q.Question = strings.TrimSpace(q.Question); q.Question != "" {
			kept = append(kept, q)
		}
	}
	return kept, nil
}

// finalize stamps the bucket's difficulty, weight and source onto every
// question regardless of what the generator claimed.
func finalize(b Bucket, qs []generatedQuestion) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		out[i] = domain.Question{
			Text:         q.Question,
			Difficulty:   b.Difficulty,
			Weight:       b.Difficulty.Weight(),
			SourceTag:    b.Source,
			RequiresCode: b.Technical,
		}
		if b.Technical {
			out[i].CodeLanguage = strings.ToLower(strings.TrimSpace(q.CodeLanguage))
		}
	}
	return out
}
