package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
)

// QuestionPlanner produces a question set for a plan request.
type QuestionPlanner interface {
	Generate(ctx domain.Context, req domain.PlanRequest) ([]domain.Question, error)
}

// PlanService orchestrates question-plan jobs: the API enqueues, the worker
// processes.
type PlanService struct {
	Plans   domain.PlanRepository
	Queue   domain.Queue
	Planner QuestionPlanner
}

// NewPlanService constructs a PlanService with its dependencies.
func NewPlanService(plans domain.PlanRepository, q domain.Queue, p QuestionPlanner) PlanService {
	return PlanService{Plans: plans, Queue: q, Planner: p}
}

// Enqueue stores a queued plan job and hands it to the queue.
func (s PlanService) Enqueue(ctx domain.Context, req domain.PlanRequest) (string, error) {
	if strings.TrimSpace(req.JobTitle) == "" {
		return "", fmt.Errorf("op=usecase.Enqueue: %w: job_title required", domain.ErrInvalidArgument)
	}
	if req.Total() <= 0 {
		return "", fmt.Errorf("op=usecase.Enqueue: %w: at least one question required", domain.ErrInvalidArgument)
	}
	id, err := s.Plans.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("op=usecase.Enqueue: %w", err)
	}
	if _, err := s.Queue.EnqueuePlan(ctx, domain.PlanTaskPayload{PlanID: id}); err != nil {
		if uerr := s.Plans.UpdateStatus(ctx, id, domain.JobFailed, ptr("enqueue failed")); uerr != nil {
			observability.LoggerFromContext(ctx).Error("mark plan failed", slog.String("plan_id", id), slog.Any("error", uerr))
		}
		return "", fmt.Errorf("op=usecase.Enqueue: %w", err)
	}
	return id, nil
}

// Fetch returns the plan job with its questions once completed.
func (s PlanService) Fetch(ctx domain.Context, id string) (domain.PlanJob, error) {
	if strings.TrimSpace(id) == "" {
		return domain.PlanJob{}, fmt.Errorf("op=usecase.Fetch: %w: id required", domain.ErrInvalidArgument)
	}
	job, err := s.Plans.Get(ctx, id)
	if err != nil {
		return domain.PlanJob{}, fmt.Errorf("op=usecase.Fetch: %w", err)
	}
	return job, nil
}

// Process runs the planner for a queued job. Completed jobs are skipped so
// redelivered records are harmless. Planner failures are recorded on the
// job and returned.
func (s PlanService) Process(ctx domain.Context, planID string) error {
	lg := observability.LoggerFromContext(ctx).With(slog.String("plan_id", planID))
	job, err := s.Plans.Get(ctx, planID)
	if err != nil {
		return fmt.Errorf("op=usecase.Process: %w", err)
	}
	if job.Status == domain.JobCompleted {
		lg.Info("plan already completed, skipping")
		return nil
	}
	if err := s.Plans.UpdateStatus(ctx, planID, domain.JobProcessing, nil); err != nil {
		return fmt.Errorf("op=usecase.Process: %w", err)
	}

	qs, err := s.Planner.Generate(ctx, job.Request)
	if err != nil {
		msg := err.Error()
		if uerr := s.Plans.UpdateStatus(ctx, planID, domain.JobFailed, &msg); uerr != nil {
			lg.Error("mark plan failed", slog.Any("error", uerr))
		}
		return fmt.Errorf("op=usecase.Process: %w", err)
	}
	if err := s.Plans.SaveQuestions(ctx, planID, qs); err != nil {
		return fmt.Errorf("op=usecase.Process: %w", err)
	}
	lg.Info("plan completed", slog.Int("questions", len(qs)))
	return nil
}

func ptr(s string) *string { return &s }
