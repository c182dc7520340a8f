package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// PlanRepo persists question-plan jobs and their generated questions.
type PlanRepo struct {
	Pool PgxPool
	now  func() time.Time
}

func NewPlanRepo(p PgxPool) *PlanRepo { return &PlanRepo{Pool: p, now: time.Now} }

// Create inserts a queued plan and returns its id.
func (r *PlanRepo) Create(ctx domain.Context, req domain.PlanRequest) (string, error) {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.Create")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("op=plan.create: %w", err)
	}
	id := uuid.New().String()
	now := r.now().UTC()
	q := `INSERT INTO question_plans (id, status, error, request, created_at, updated_at) VALUES ($1,$2,'',$3,$4,$5)`
	if _, err := r.Pool.Exec(ctx, q, id, domain.JobQueued, body, now, now); err != nil {
		return "", fmt.Errorf("op=plan.create: %w", err)
	}
	span.SetAttributes(attribute.String("plan.id", id))
	return id, nil
}

// UpdateStatus sets a plan's status and optional error message.
func (r *PlanRepo) UpdateStatus(ctx domain.Context, id string, status domain.JobStatus, errMsg *string) error {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id), attribute.String("status", string(status)))

	errVal := ""
	if errMsg != nil {
		errVal = *errMsg
	}
	tag, err := r.Pool.Exec(ctx, `UPDATE question_plans SET status=$2, error=$3, updated_at=$4 WHERE id=$1`, id, status, errVal, r.now().UTC())
	if err != nil {
		return fmt.Errorf("op=plan.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=plan.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

// SaveQuestions stores the generated questions and marks the plan completed
// in one transaction.
func (r *PlanRepo) SaveQuestions(ctx domain.Context, id string, qs []domain.Question) error {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.SaveQuestions")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id), attribute.Int("questions", len(qs)))

	body, err := json.Marshal(qs)
	if err != nil {
		return fmt.Errorf("op=plan.save_questions: %w", err)
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=plan.save_questions: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE question_plans SET questions=$2, status=$3, error='', updated_at=$4 WHERE id=$1`, id, body, domain.JobCompleted, r.now().UTC())
	if err != nil {
		return fmt.Errorf("op=plan.save_questions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=plan.save_questions: %w", domain.ErrNotFound)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=plan.save_questions: %w", err)
	}
	return nil
}

// Get loads a plan with its questions.
func (r *PlanRepo) Get(ctx domain.Context, id string) (domain.PlanJob, error) {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.Get")
	defer span.End()

	j := domain.PlanJob{ID: id}
	var req, questions []byte
	q := `SELECT status, error, request, questions, created_at, updated_at FROM question_plans WHERE id=$1`
	err := r.Pool.QueryRow(ctx, q, id).Scan(&j.Status, &j.Error, &req, &questions, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlanJob{}, fmt.Errorf("op=plan.get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.PlanJob{}, fmt.Errorf("op=plan.get: %w", err)
	}
	if err := json.Unmarshal(req, &j.Request); err != nil {
		return domain.PlanJob{}, fmt.Errorf("op=plan.get: %w: %v", domain.ErrInternal, err)
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &j.Questions); err != nil {
			return domain.PlanJob{}, fmt.Errorf("op=plan.get: %w: %v", domain.ErrInternal, err)
		}
	}
	return j, nil
}

// FailStale marks plans stuck in processing since before cutoff as failed
// and returns how many were updated.
func (r *PlanRepo) FailStale(ctx domain.Context, cutoff time.Time, reason string) (int64, error) {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.FailStale")
	defer span.End()

	tag, err := r.Pool.Exec(ctx,
		`UPDATE question_plans SET status=$1, error=$2, updated_at=$3 WHERE status=$4 AND updated_at < $5`,
		domain.JobFailed, reason, r.now().UTC(), domain.JobProcessing, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("op=plan.fail_stale: %w", err)
	}
	span.SetAttributes(attribute.Int64("plans.failed", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
