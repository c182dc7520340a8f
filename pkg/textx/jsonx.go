package textx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// StripCodeFence removes a surrounding markdown code fence such as ```json ... ```.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the JSON object carried by raw. It tries the whole
// string, then the span between the first '{' and the last '}', then the same
// span with trailing commas removed.
func ExtractJSONObject(raw string) (string, bool) {
	return extract(raw, '{', '}')
}

// ExtractJSONArray is ExtractJSONObject for arrays ('[' .. ']').
func ExtractJSONArray(raw string) (string, bool) {
	return extract(raw, '[', ']')
}

func extract(raw string, open, close byte) (string, bool) {
	s := StripCodeFence(raw)
	if s == "" {
		return "", false
	}
	if s[0] == open && json.Valid([]byte(s)) {
		return s, true
	}
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	span := s[start : end+1]
	if json.Valid([]byte(span)) {
		return span, true
	}
	fixed := trailingComma.ReplaceAllString(span, "$1")
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}
	return "", false
}
