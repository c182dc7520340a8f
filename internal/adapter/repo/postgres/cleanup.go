package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// CleanupService deletes finished interviews and plans past the retention
// window.
type CleanupService struct {
	Pool          PgxPool
	RetentionDays int
	now           func() time.Time
}

func NewCleanupService(pool PgxPool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays, now: time.Now}
}

// CleanupOldData removes rows older than the retention window in one
// transaction.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := s.now().AddDate(0, 0, -s.RetentionDays).UTC()

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=cleanup.begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleted := map[string]int64{}
	for _, table := range []string{"interview_transcripts", "interview_feedback", "question_plans"} {
		tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE created_at < $1`, cutoff)
		if err != nil {
			return fmt.Errorf("op=cleanup.%s: %w", table, err)
		}
		deleted[table] = tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=cleanup.commit: %w", err)
	}

	slog.Info("data cleanup completed",
		slog.Int64("deleted_transcripts", deleted["interview_transcripts"]),
		slog.Int64("deleted_feedback", deleted["interview_feedback"]),
		slog.Int64("deleted_plans", deleted["question_plans"]),
		slog.Time("cutoff", cutoff))
	return nil
}

// RunPeriodic cleans up once immediately and then every interval until ctx
// is done.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
