package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/service/ratelimiter"
)

// GeneratorBucket is the limiter key shared by every process calling the
// generator.
const GeneratorBucket = "generator"

// Throttled waits for a token from the shared bucket before each call. When
// the wait would exceed maxWait it returns ErrUpstreamRateLimit instead.
type Throttled struct {
	next    domain.Generator
	limiter ratelimiter.Limiter
	maxWait time.Duration
}

func NewThrottled(next domain.Generator, limiter ratelimiter.Limiter, maxWait time.Duration) *Throttled {
	return &Throttled{next: next, limiter: limiter, maxWait: maxWait}
}

func (t *Throttled) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	if t.limiter != nil {
		if err := t.wait(ctx); err != nil {
			return "", err
		}
	}
	return t.next.Complete(ctx, messages)
}

func (t *Throttled) wait(ctx context.Context) error {
	deadline := time.Now().Add(t.maxWait)
	for {
		allowed, retryAfter, err := t.limiter.Allow(ctx, GeneratorBucket, 1)
		if err != nil {
			slog.Warn("generator limiter unavailable, continuing", slog.Any("error", err))
			return nil
		}
		if allowed {
			return nil
		}
		if time.Now().Add(retryAfter).After(deadline) {
			return fmt.Errorf("op=ai.Throttled: %w: retry after %s", domain.ErrUpstreamRateLimit, retryAfter)
		}
		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("op=ai.Throttled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
