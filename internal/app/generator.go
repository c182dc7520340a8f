package app

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/ai/real"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/config"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/service/ratelimiter"
)

const (
	generatorMaxWait         = 20 * time.Second
	generatorBreakerFailures = 5
	generatorBreakerRecovery = 30 * time.Second
)

// BuildGenerator returns the generator chain used by both processes. Without
// an API key the deterministic stub is returned and every classifier falls
// back to its default label.
func BuildGenerator(cfg config.Config, rdb redis.Scripter) domain.Generator {
	if !cfg.GeneratorConfigured() {
		slog.Warn("generator not configured, using stub", slog.String("provider", cfg.AIProvider))
		return stub.New()
	}
	var gen domain.Generator = real.New(cfg)
	if rdb != nil && cfg.AIRequestsPerMin > 0 {
		limiter := ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
			ai.GeneratorBucket: ratelimiter.NewBucketConfigFromPerMinute(cfg.AIRequestsPerMin),
		})
		gen = ai.NewThrottled(gen, limiter, generatorMaxWait)
	}
	return ai.NewCircuitBreaker(gen, generatorBreakerFailures, generatorBreakerRecovery)
}
