package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLoggerAndLoggerFromContext(t *testing.T) {
	lg := slog.Default()
	baseCtx := context.Background()

	ctxWithLogger := ContextWithLogger(baseCtx, lg)
	assert.NotEqual(t, baseCtx, ctxWithLogger)
	assert.Same(t, lg, LoggerFromContext(ctxWithLogger))

	assert.Equal(t, baseCtx, ContextWithLogger(baseCtx, nil))
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestContextWithRequestID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))

	base := context.Background()
	assert.Equal(t, base, ContextWithRequestID(base, ""))
}

func TestContextWithSession_BindsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithSession(base, "sess-1")
	assert.Equal(t, "sess-1", SessionIDFromContext(ctx))

	LoggerFromContext(ctx).Info("turn")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sess-1", rec["session_id"])

	assert.Equal(t, "", SessionIDFromContext(context.Background()))
	assert.Equal(t, base, ContextWithSession(base, ""))
}
