package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/interview"
)

type memStore struct {
	mu      sync.Mutex
	states  map[string]interview.SessionState
	locked  map[string]bool
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{states: map[string]interview.SessionState{}, locked: map[string]bool{}}
}

func (m *memStore) Save(_ context.Context, st interview.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[st.ID] = st.Clone()
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (interview.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return interview.SessionState{}, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	return st.Clone(), nil
}

func (m *memStore) Lock(_ context.Context, id string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[id] {
		return nil, fmt.Errorf("%w: session busy", domain.ErrConflict)
	}
	m.locked[id] = true
	return func() {
		m.mu.Lock()
		delete(m.locked, id)
		m.mu.Unlock()
	}, nil
}

type templateMap map[string]domain.InterviewConfig

func (t templateMap) Lookup(name string) (domain.InterviewConfig, error) {
	cfg, ok := t[name]
	if !ok {
		return domain.InterviewConfig{}, fmt.Errorf("%w: template %q", domain.ErrNotFound, name)
	}
	return cfg, nil
}

type memPlans struct {
	mu        sync.Mutex
	jobs      map[string]domain.PlanJob
	createErr error
	seq       int
	statuses  []domain.JobStatus
}

func newMemPlans() *memPlans { return &memPlans{jobs: map[string]domain.PlanJob{}} }

func (p *memPlans) Create(_ context.Context, req domain.PlanRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return "", p.createErr
	}
	p.seq++
	id := fmt.Sprintf("plan-%d", p.seq)
	p.jobs[id] = domain.PlanJob{ID: id, Status: domain.JobQueued, Request: req}
	return id, nil
}

func (p *memPlans) Get(_ context.Context, id string) (domain.PlanJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok {
		return domain.PlanJob{}, fmt.Errorf("%w: plan %s", domain.ErrNotFound, id)
	}
	return j, nil
}

func (p *memPlans) UpdateStatus(_ context.Context, id string, status domain.JobStatus, errMsg *string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = status
	if errMsg != nil {
		j.Error = *errMsg
	}
	p.jobs[id] = j
	p.statuses = append(p.statuses, status)
	return nil
}

func (p *memPlans) SaveQuestions(_ context.Context, id string, qs []domain.Question) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	j := p.jobs[id]
	j.Questions = qs
	j.Status = domain.JobCompleted
	p.jobs[id] = j
	p.statuses = append(p.statuses, domain.JobCompleted)
	return nil
}

type fakeQueue struct {
	payloads []domain.PlanTaskPayload
	err      error
}

func (q *fakeQueue) EnqueuePlan(_ context.Context, p domain.PlanTaskPayload) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, p)
	return p.PlanID, nil
}

type fakePlanner struct {
	qs  []domain.Question
	err error
	got []domain.PlanRequest
}

func (f *fakePlanner) Generate(_ context.Context, req domain.PlanRequest) ([]domain.Question, error) {
	f.got = append(f.got, req)
	return f.qs, f.err
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.InterviewCompletedEvent
	err    error
}

func (e *fakeEvents) PublishInterviewCompleted(_ context.Context, ev domain.InterviewCompletedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return e.err
}

type fakeFeedbacks map[string]domain.Feedback

func (f fakeFeedbacks) GetFeedback(_ context.Context, id string) (domain.Feedback, error) {
	fb, ok := f[id]
	if !ok {
		return domain.Feedback{}, fmt.Errorf("%w: feedback %s", domain.ErrNotFound, id)
	}
	return fb, nil
}

// downGenerator fails every call so sessions run on policy defaults.
type downGenerator struct{}

func (downGenerator) Complete(context.Context, []domain.Message) (string, error) {
	return "", errors.New("generator offline")
}
