package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		vocab  []Label
		want   Label
		wantOK bool
	}{
		{"exact", "valid", []Label{LabelValid, LabelRetry}, LabelValid, true},
		{"case and punctuation", `  "Retry."  `, []Label{LabelValid, LabelRetry}, LabelRetry, true},
		{"first word", "yes, a follow-up would help", yesNo, LabelYes, true},
		{"spaced multiword", "No answer", answerGrade, LabelNoAnswer, true},
		{"hyphenated", "off-topic", answerGrade, LabelOffTopic, true},
		{"hyphenated first word", "off-topic: talks about sports", answerGrade, LabelOffTopic, true},
		{"markdown", "**clear**", answerGrade, LabelClear, true},
		{"outside vocabulary", "maybe", yesNo, LabelNo, false},
		{"empty", "", yesNo, LabelNo, false},
		{"substring is not enough", "unclear", answerGrade, LabelConfused, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := tt.vocab[len(tt.vocab)-1]
			if len(tt.vocab) == len(answerGrade) {
				fallback = LabelConfused
			}
			got, ok := ParseLabel(tt.raw, tt.vocab, fallback)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestLabel_Negative(t *testing.T) {
	for _, l := range []Label{LabelWeak, LabelConfused, LabelNoAnswer, LabelOffTopic} {
		assert.True(t, l.Negative(), l)
	}
	for _, l := range []Label{LabelClear, LabelStrong, LabelYes} {
		assert.False(t, l.Negative(), l)
	}
}

func TestParseStage(t *testing.T) {
	for _, s := range Stages {
		got, err := ParseStage(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStage("lobby")
	assert.Error(t, err)
	assert.True(t, StageWrapup.Terminal())
	assert.False(t, StageIntroduction.Terminal())
}

func TestConversationLog_Tail(t *testing.T) {
	var l ConversationLog
	l.Append("assistant", "hello")
	l.Append("user", "hi")
	l.Append("assistant", "how are you")

	assert.Equal(t, 3, l.Len())
	tail := l.Tail(2)
	assert.Equal(t, "hi", tail[0].Content)
	assert.Equal(t, "how are you", tail[1].Content)
	assert.Len(t, l.Tail(10), 3)
	assert.Nil(t, l.Tail(0))
	assert.Equal(t, "hi", l.LastUser())

	tail[0].Content = "changed"
	assert.Equal(t, "hi", l[1].Content, "tail is a copy")
}
