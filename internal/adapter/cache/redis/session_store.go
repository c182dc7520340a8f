// Package redis stores live interview sessions as JSON documents with a TTL
// and guards each session with a short-lived lock so turns never interleave.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/interview"
)

const (
	sessionPrefix = "interview:session:"
	lockPrefix    = "interview:lock:"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore implements the interview session store on Redis.
type SessionStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewSessionStore(rdb goredis.UniversalClient, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Save writes the state and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, st interview.SessionState) error {
	tracer := otel.Tracer("cache.redis")
	ctx, span := tracer.Start(ctx, "sessions.Save")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", st.ID))

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("op=redis.Save: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionPrefix+st.ID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("op=redis.Save: %w", err)
	}
	return nil
}

// Get loads a state. Expired or unknown sessions are ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (interview.SessionState, error) {
	tracer := otel.Tracer("cache.redis")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	b, err := s.rdb.Get(ctx, sessionPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return interview.SessionState{}, fmt.Errorf("op=redis.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return interview.SessionState{}, fmt.Errorf("op=redis.Get: %w", err)
	}
	var st interview.SessionState
	if err := json.Unmarshal(b, &st); err != nil {
		return interview.SessionState{}, fmt.Errorf("op=redis.Get: %w: %v", domain.ErrInternal, err)
	}
	return st, nil
}

// Lock takes the per-session lock for at most hold. A session already locked
// by another turn yields ErrConflict. The returned func releases the lock.
func (s *SessionStore) Lock(ctx context.Context, id string, hold time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, lockPrefix+id, token, hold).Result()
	if err != nil {
		return nil, fmt.Errorf("op=redis.Lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("op=redis.Lock: %w: session busy", domain.ErrConflict)
	}
	return func() {
		// release with a fresh context so a cancelled request still unlocks
		_ = releaseScript.Run(context.WithoutCancel(ctx), s.rdb, []string{lockPrefix + id}, token).Err()
	}, nil
}

// Ping reports whether Redis answers.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
