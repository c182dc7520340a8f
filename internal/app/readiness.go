package app

import (
	"context"
	"fmt"

	httpserver "github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/httpserver"
)

// Pinger is anything with a context-aware Ping: *pgxpool.Pool, the Redis
// session store or *kgo.Client.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db, redis and kafka probes. A nil
// dependency fails its probe.
func BuildReadinessChecks(db, redis, kafka Pinger) []httpserver.ReadinessCheck {
	probe := func(name string, p Pinger) httpserver.ReadinessCheck {
		return httpserver.ReadinessCheck{Name: name, Check: func(ctx context.Context) error {
			if p == nil {
				return fmt.Errorf("%s not configured", name)
			}
			return p.Ping(ctx)
		}}
	}
	return []httpserver.ReadinessCheck{probe("db", db), probe("redis", redis), probe("kafka", kafka)}
}
