// Package real implements the generator against an OpenAI-compatible chat
// completions API.
package real

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/config"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

const provider = "openai"

// Client implements domain.Generator.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	counter *tokencount.Counter
	backoff func() backoff.BackOff
}

// New constructs a client with a traced transport.
func New(cfg config.Config) *Client {
	timeout := 60 * time.Second
	if cfg.IsDev() {
		timeout = 180 * time.Second
	}
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("Generator %s %s", r.Method, r.URL.Path)
		}),
	)
	c := &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: timeout, Transport: transport},
		counter: tokencount.DefaultCounter,
	}
	c.backoff = c.defaultBackoff
	return c
}

func (c *Client) defaultBackoff() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

type chatRequest struct {
	Model       string           `json:"model"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Messages    []domain.Message `json:"messages"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// statusError keeps the upstream status so the final error can be mapped to
// a domain sentinel.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("chat status %d: %s", e.code, e.body) }

// Complete sends messages and returns the first choice's content. 429 and 5xx
// responses are retried with exponential backoff; other 4xx are not.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("op=real.Complete: %w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.ChatModel,
		Temperature: c.cfg.ChatTemp,
		MaxTokens:   c.cfg.ChatMaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("op=real.Complete: %w", err)
	}
	endpoint := c.cfg.OpenAIBaseURL + "/chat/completions"

	var out chatResponse
	op := func() error {
		start := time.Now()
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(provider, "transport_error").Inc()
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(provider, "transport_error").Inc()
			return err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.AIRequestsTotal.WithLabelValues(provider, "rate_limited").Inc()
			slog.Warn("ai provider rate limited", slog.String("provider", provider), slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return &statusError{code: resp.StatusCode, body: snippet(respBody)}
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.AIRequestsTotal.WithLabelValues(provider, "client_error").Inc()
			slog.Warn("ai provider 4xx", slog.String("provider", provider), slog.Int("status", resp.StatusCode), slog.String("model", c.cfg.ChatModel), slog.String("body", snippet(respBody)))
			return backoff.Permanent(&statusError{code: resp.StatusCode, body: snippet(respBody)})
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.AIRequestsTotal.WithLabelValues(provider, "server_error").Inc()
			slog.Error("ai provider non-2xx", slog.String("provider", provider), slog.Int("status", resp.StatusCode), slog.String("body", snippet(respBody)))
			return &statusError{code: resp.StatusCode, body: snippet(respBody)}
		}
		if err := json.Unmarshal(respBody, &out); err != nil {
			observability.AIRequestsTotal.WithLabelValues(provider, "decode_error").Inc()
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err))
		}
		observability.AIRequestsTotal.WithLabelValues(provider, "ok").Inc()
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.backoff(), ctx)); err != nil {
		return "", fmt.Errorf("op=real.Complete: %w", classify(ctx, err))
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=real.Complete: %w: empty choices", domain.ErrSchemaInvalid)
	}
	content := out.Choices[0].Message.Content
	c.recordUsage(messages, content, out)
	return content, nil
}

func (c *Client) recordUsage(messages []domain.Message, content string, out chatResponse) {
	if out.Usage != nil {
		observability.AITokensTotal.WithLabelValues(provider, "prompt").Add(float64(out.Usage.PromptTokens))
		observability.AITokensTotal.WithLabelValues(provider, "completion").Add(float64(out.Usage.CompletionTokens))
		return
	}
	usage := c.counter.CalculateUsage(messages, content, c.cfg.ChatModel, provider)
	observability.AITokensTotal.WithLabelValues(provider, "prompt").Add(float64(usage.PromptTokens))
	observability.AITokensTotal.WithLabelValues(provider, "completion").Add(float64(usage.CompletionTokens))
}

// classify maps a final retry error onto the domain taxonomy.
func classify(ctx context.Context, err error) error {
	var se *statusError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	case errors.As(err, &se) && se.code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamRateLimit, err)
	case errors.As(err, &se) && se.code >= 400 && se.code < 500:
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	case errors.Is(err, domain.ErrSchemaInvalid):
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
