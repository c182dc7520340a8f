package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	obsmetrics "github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
)

// errNoGenerator is returned by Call when the classifier has no backend.
var errNoGenerator = errors.New("generator not configured")

// Result is the outcome of one generator call. Text is trimmed.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the call succeeded with non-empty text.
func (r Result) OK() bool { return r.Err == nil && r.Text != "" }

// Classifier wraps the generator with the per-site fallback policy. Its
// Decide and Generate methods never fail: every error degrades to the
// site's default.
type Classifier struct {
	gen domain.Generator
}

// NewClassifier builds a classifier over gen. A nil generator makes every
// call fall back.
func NewClassifier(gen domain.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Call sends [system, ...turns, user?] to the generator.
func (c *Classifier) Call(ctx context.Context, site CallSite, data promptData, turns []domain.Message, user string) (res Result) {
	if c == nil || c.gen == nil {
		return Result{Err: errNoGenerator}
	}
	system, err := renderPrompt(site, data)
	if err != nil {
		return Result{Err: err}
	}
	msgs := make([]domain.Message, 0, len(turns)+2)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: system})
	msgs = append(msgs, turns...)
	if strings.TrimSpace(user) != "" {
		msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: user})
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("generator panic: %v", r)}
		}
	}()
	text, err := c.gen.Complete(ctx, msgs)
	return Result{Text: strings.TrimSpace(text), Err: err}
}

// Decide runs a label call site and returns a label from its vocabulary.
func (c *Classifier) Decide(ctx context.Context, site CallSite, data promptData, turns []domain.Message, user string) Label {
	pol := policyOf(site)
	fallback := Label(pol.Default)
	res := c.Call(ctx, site, data, turns, user)
	if res.Err != nil {
		c.fellBack(ctx, site, "error", res.Err)
		return fallback
	}
	label, ok := ParseLabel(res.Text, pol.Labels, fallback)
	if !ok {
		c.fellBack(ctx, site, "unparsed", fmt.Errorf("unexpected reply %q", truncateForLog(res.Text)))
	}
	return label
}

// Generate runs a free-text call site. Empty replies count as failures.
func (c *Classifier) Generate(ctx context.Context, site CallSite, data promptData, turns []domain.Message, user string) string {
	pol := policyOf(site)
	res := c.Call(ctx, site, data, turns, user)
	switch {
	case res.Err != nil:
		c.fellBack(ctx, site, "error", res.Err)
		return pol.Default
	case res.Text == "":
		c.fellBack(ctx, site, "empty", nil)
		return pol.Default
	}
	return res.Text
}

func (c *Classifier) fellBack(ctx context.Context, site CallSite, reason string, err error) {
	obsmetrics.ObserveClassifierFallback(string(site), reason)
	attrs := []any{slog.String("call_site", string(site)), slog.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	observability.LoggerFromContext(ctx).Warn("classifier fallback", attrs...)
}

func policyOf(site CallSite) Policy {
	p, ok := policies[site]
	if !ok {
		panic(fmt.Sprintf("interview: no policy for call site %q", site))
	}
	return p
}

func truncateForLog(s string) string {
	const maxLen = 120
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
