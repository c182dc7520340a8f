package app

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/config"
)

func TestBuildGenerator(t *testing.T) {
	t.Run("stub without api key", func(t *testing.T) {
		gen := BuildGenerator(config.Config{}, nil)
		assert.IsType(t, &stub.Client{}, gen)
	})

	t.Run("breaker over throttled real client", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		cfg := config.Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: "http://127.0.0.1:1", AIRequestsPerMin: 30}
		gen := BuildGenerator(cfg, rdb)
		cb, ok := gen.(*ai.CircuitBreaker)
		assert.True(t, ok)
		assert.Equal(t, ai.CircuitClosed, cb.State())
	})
}
