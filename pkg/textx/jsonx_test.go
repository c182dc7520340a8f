package textx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"whole", `{"a":1}`, `{"a":1}`, true},
		{"embedded", `noise {"knowledge_rating":7,"emotion":"confident"} trailing`, `{"knowledge_rating":7,"emotion":"confident"}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"trailing comma", `here: {"a":1,}`, `{"a":1}`, true},
		{"none", "not json at all", "", false},
		{"broken", `{"a": }`, "", false},
		{"empty", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, ok := ExtractJSONArray("Sure! Here you go:\n[{\"question\":\"q1\"},{\"question\":\"q2\"}]\nGood luck")
	assert.True(t, ok)
	assert.Equal(t, `[{"question":"q1"},{"question":"q2"}]`, got)

	_, ok = ExtractJSONArray(`{"question":"q1"}`)
	assert.False(t, ok)
}
