package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// InterviewRepo stores transcripts and feedback of finished sessions. The two
// writes are separate statements so one can succeed while the other fails.
type InterviewRepo struct{ Pool PgxPool }

func NewInterviewRepo(p PgxPool) *InterviewRepo { return &InterviewRepo{Pool: p} }

// SaveTranscript inserts or replaces the transcript of a session.
func (r *InterviewRepo) SaveTranscript(ctx domain.Context, t domain.Transcript) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.SaveTranscript")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", t.SessionID), attribute.Int("turns", len(t.Turns)))

	turns, err := json.Marshal(t.Turns)
	if err != nil {
		return fmt.Errorf("op=interview.save_transcript: %w", err)
	}
	q := `INSERT INTO interview_transcripts (session_id, job_title, end_reason, turns, created_at)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (session_id)
	DO UPDATE SET job_title=EXCLUDED.job_title, end_reason=EXCLUDED.end_reason, turns=EXCLUDED.turns`
	if _, err := r.Pool.Exec(ctx, q, t.SessionID, t.JobTitle, t.EndReason, turns, t.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("op=interview.save_transcript: %w", err)
	}
	return nil
}

// SaveFeedback inserts or replaces the feedback of a session.
func (r *InterviewRepo) SaveFeedback(ctx domain.Context, f domain.Feedback) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.SaveFeedback")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", f.SessionID), attribute.Bool("templated", f.Templated))

	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("op=interview.save_feedback: %w", err)
	}
	q := `INSERT INTO interview_feedback (session_id, job_title, overall_rating, templated, payload, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (session_id)
	DO UPDATE SET overall_rating=EXCLUDED.overall_rating, templated=EXCLUDED.templated, payload=EXCLUDED.payload`
	if _, err := r.Pool.Exec(ctx, q, f.SessionID, f.JobTitle, f.OverallRating, f.Templated, payload, f.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("op=interview.save_feedback: %w", err)
	}
	return nil
}

// GetFeedback loads stored feedback by session id.
func (r *InterviewRepo) GetFeedback(ctx domain.Context, sessionID string) (domain.Feedback, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.GetFeedback")
	defer span.End()

	var payload []byte
	err := r.Pool.QueryRow(ctx, `SELECT payload FROM interview_feedback WHERE session_id=$1`, sessionID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Feedback{}, fmt.Errorf("op=interview.get_feedback: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("op=interview.get_feedback: %w", err)
	}
	var f domain.Feedback
	if err := json.Unmarshal(payload, &f); err != nil {
		return domain.Feedback{}, fmt.Errorf("op=interview.get_feedback: %w: %v", domain.ErrInternal, err)
	}
	return f, nil
}

// GetTranscript loads a stored transcript by session id.
func (r *InterviewRepo) GetTranscript(ctx domain.Context, sessionID string) (domain.Transcript, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.GetTranscript")
	defer span.End()

	t := domain.Transcript{SessionID: sessionID}
	var turns []byte
	q := `SELECT job_title, end_reason, turns, created_at FROM interview_transcripts WHERE session_id=$1`
	err := r.Pool.QueryRow(ctx, q, sessionID).Scan(&t.JobTitle, &t.EndReason, &turns, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transcript{}, fmt.Errorf("op=interview.get_transcript: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("op=interview.get_transcript: %w", err)
	}
	if err := json.Unmarshal(turns, &t.Turns); err != nil {
		return domain.Transcript{}, fmt.Errorf("op=interview.get_transcript: %w: %v", domain.ErrInternal, err)
	}
	return t, nil
}
