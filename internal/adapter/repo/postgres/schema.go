package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS interview_transcripts (
		session_id TEXT PRIMARY KEY,
		job_title TEXT NOT NULL,
		end_reason TEXT NOT NULL,
		turns JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interview_feedback (
		session_id TEXT PRIMARY KEY,
		job_title TEXT NOT NULL,
		overall_rating DOUBLE PRECISION NOT NULL,
		templated BOOLEAN NOT NULL DEFAULT FALSE,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS question_plans (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		request JSONB NOT NULL,
		questions JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS question_plans_created_at_idx ON question_plans (created_at)`,
}

// Migrate creates the tables the repos need. Every statement is idempotent.
func Migrate(ctx context.Context, pool PgxPool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("op=postgres.Migrate: %w", err)
		}
	}
	return nil
}
