package interview

import (
	"strings"
	"unicode"
)

// Label is a decision returned by a classifier call site. Each call site
// accepts a closed subset of labels.
type Label string

const (
	LabelContinue Label = "continue"
	LabelWait     Label = "wait"
	LabelRetry    Label = "retry"
	LabelValid    Label = "valid"
	LabelStrong   Label = "strong"
	LabelWeak     Label = "weak"
	LabelYes      Label = "yes"
	LabelNo       Label = "no"
	LabelDone     Label = "done"
	LabelQuestion Label = "question"
	LabelPrompt   Label = "prompt"
	LabelClear    Label = "clear"
	LabelConfused Label = "confused"
	LabelNoAnswer Label = "no_answer"
	LabelOffTopic Label = "off_topic"
)

// Vocabularies shared by several call sites.
var (
	yesNo       = []Label{LabelYes, LabelNo}
	doneOrMore  = []Label{LabelDone, LabelContinue}
	answerGrade = []Label{LabelClear, LabelWeak, LabelConfused, LabelNoAnswer, LabelOffTopic}
)

// Negative reports whether an answer grade counts as insufficient.
func (l Label) Negative() bool {
	switch l {
	case LabelWeak, LabelConfused, LabelNoAnswer, LabelOffTopic:
		return true
	default:
		return false
	}
}

// ParseLabel maps free model text onto vocab. The whole reply is tried
// first, then its first word; anything else yields fallback with ok=false.
func ParseLabel(raw string, vocab []Label, fallback Label) (Label, bool) {
	norm := normalizeLabel(raw)
	if norm == "" {
		return fallback, false
	}
	for _, l := range vocab {
		if norm == string(l) {
			return l, true
		}
	}
	first := norm
	if i := strings.IndexAny(norm, " \n\t"); i > 0 {
		first = strings.TrimRightFunc(norm[:i], unicode.IsPunct)
	}
	for _, l := range vocab {
		if first == string(l) || strings.ReplaceAll(first, "-", "_") == string(l) {
			return l, true
		}
	}
	return fallback, false
}

func normalizeLabel(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`*.!:;,()[] \n\t")
	// "no answer" / "off-topic" style spellings of multi-word labels
	if strings.Count(s, " ") == 1 || strings.Contains(s, "-") {
		joined := strings.NewReplacer(" ", "_", "-", "_").Replace(s)
		for _, l := range answerGrade {
			if joined == string(l) {
				return joined
			}
		}
	}
	return s
}
