package interview

import "github.com/fairyhunter13/ai-mock-interviewer/internal/domain"

// ConversationLog is the append-only record of a session's turns. It is
// never truncated; prompts window it with Tail.
type ConversationLog []domain.Message

// Append adds a turn at the end of the log.
func (l *ConversationLog) Append(role, content string) {
	*l = append(*l, domain.Message{Role: role, Content: content})
}

// Tail returns a copy of the last n turns in order.
func (l ConversationLog) Tail(n int) []domain.Message {
	if n <= 0 {
		return nil
	}
	if n > len(l) {
		n = len(l)
	}
	out := make([]domain.Message, n)
	copy(out, l[len(l)-n:])
	return out
}

// Turns returns a copy of the whole log.
func (l ConversationLog) Turns() []domain.Message {
	return l.Tail(len(l))
}

// Len is the number of turns.
func (l ConversationLog) Len() int { return len(l) }

// LastUser returns the most recent user turn content.
func (l ConversationLog) LastUser() string {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Role == domain.RoleUser {
			return l[i].Content
		}
	}
	return ""
}
