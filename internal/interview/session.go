package interview

import (
	"context"
	"sync"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// Session holds one interview in memory and serializes its turns. Hosts
// that keep state elsewhere call Machine.ReceiveInput directly.
type Session struct {
	mu    sync.Mutex
	m     *Machine
	state SessionState
}

// Start creates an in-memory session.
func (m *Machine) Start(id string, cfg domain.InterviewConfig, limits domain.InterviewLimits) *Session {
	return &Session{m: m, state: m.NewSession(id, cfg, limits)}
}

// ReceiveInput runs one turn.
func (s *Session) ReceiveInput(ctx context.Context, input string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, reply := s.m.ReceiveInput(ctx, s.state, input)
	s.state = next
	return reply
}

// State returns a copy of the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
