// Package stub is a fast, deterministic generator for local runs and tests.
// It reads the instruction it is given and answers in the requested shape:
// the first listed label for classifications, JSON for ratings, summaries
// and question batches, and a fixed sentence otherwise.
package stub

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

var (
	batchPattern  = regexp.MustCompile(`Generate exactly (\d+) unique`)
	inlineChoice  = regexp.MustCompile(`exactly one (?:word|label):\s*([a-z_]+)`)
	bulletChoice  = regexp.MustCompile(`(?m)^-\s*([a-z_]+):`)
	diffPattern   = regexp.MustCompile(`difficulty "([a-z]+)"`)
	ratingMarker  = `"knowledge_rating"`
	summaryMarker = `"overall_rating"`
)

const freeText = "Thanks for sharing. Could you walk me through a concrete example from your experience?"

type Client struct{}

func New() *Client { return &Client{} }

// Complete answers based on the first system message.
func (c *Client) Complete(_ domain.Context, messages []domain.Message) (string, error) {
	var system string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = m.Content
			break
		}
	}
	switch {
	case batchPattern.MatchString(system):
		n, _ := strconv.Atoi(batchPattern.FindStringSubmatch(system)[1])
		return questionBatch(n, system), nil
	case strings.Contains(system, ratingMarker):
		return `{"knowledge_rating": 7, "emotion": "confident"}`, nil
	case strings.Contains(system, summaryMarker):
		return `{"summary": "The candidate communicated clearly and gave relevant examples.", "key_strengths": ["Clear communication"], "improvement_areas": ["Add more measurable outcomes"], "overall_rating": 7}`, nil
	}
	if m := inlineChoice.FindStringSubmatch(system); m != nil {
		return m[1], nil
	}
	if strings.Contains(system, "exactly one") {
		if m := bulletChoice.FindStringSubmatch(system); m != nil {
			return m[1], nil
		}
	}
	return freeText, nil
}

func questionBatch(n int, prompt string) string {
	difficulty := "beginner"
	if m := diffPattern.FindStringSubmatch(prompt); m != nil {
		difficulty = m[1]
	}
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"question":      fmt.Sprintf("Describe a %s-level problem you solved recently (%d).", difficulty, i+1),
			"difficulty":    difficulty,
			"code_language": "go",
		}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
