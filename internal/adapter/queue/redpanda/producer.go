// Package redpanda carries plan jobs and interview events over
// Redpanda/Kafka using transactional produce and group-transact consume.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// txProducer is the subset of *kgo.Client the producer drives.
type txProducer interface {
	BeginTransaction() error
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	EndTransaction(ctx context.Context, commit kgo.TransactionEndTry) error
	Ping(ctx context.Context) error
	Close()
}

// Producer implements domain.Queue and domain.EventPublisher.
type Producer struct {
	client      txProducer
	planTopic   string
	eventsTopic string
	// single slot: one open transaction per client
	txLock chan struct{}
}

// NewProducer dials the brokers with a transactional client and makes
// sure both topics exist.
func NewProducer(brokers []string, transactionalID, planTopic, eventsTopic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.NewProducer: no seed brokers provided")
	}
	kot := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.WithHooks(kot.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewProducer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, topic := range []string{planTopic, eventsTopic} {
		if err := createTopicIfNotExists(ctx, client, topic, 3, 1); err != nil {
			slog.Warn("topic creation failed", slog.String("topic", topic), slog.Any("error", err))
		}
	}
	slog.Info("redpanda producer ready", slog.Any("brokers", brokers), slog.String("transactional_id", transactionalID))
	return newProducer(client, planTopic, eventsTopic), nil
}

func newProducer(client txProducer, planTopic, eventsTopic string) *Producer {
	return &Producer{
		client:      client,
		planTopic:   planTopic,
		eventsTopic: eventsTopic,
		txLock:      make(chan struct{}, 1),
	}
}

// EnqueuePlan publishes a plan job keyed by plan id and returns that id.
func (p *Producer) EnqueuePlan(ctx domain.Context, payload domain.PlanTaskPayload) (string, error) {
	if payload.PlanID == "" {
		return "", fmt.Errorf("%w: plan id required", domain.ErrInvalidArgument)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=redpanda.EnqueuePlan: %w", err)
	}
	rec := &kgo.Record{
		Topic:   p.planTopic,
		Key:     []byte(payload.PlanID),
		Value:   b,
		Headers: []kgo.RecordHeader{{Key: "plan_id", Value: []byte(payload.PlanID)}},
	}
	if err := p.produceTx(ctx, rec); err != nil {
		return "", fmt.Errorf("op=redpanda.EnqueuePlan: %w", err)
	}
	observability.EnqueueJob("plan")
	slog.Info("plan job enqueued", slog.String("plan_id", payload.PlanID), slog.String("topic", p.planTopic))
	return payload.PlanID, nil
}

// PublishInterviewCompleted emits the completion event keyed by session id.
func (p *Producer) PublishInterviewCompleted(ctx domain.Context, ev domain.InterviewCompletedEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.PublishInterviewCompleted: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.eventsTopic,
		Key:   []byte(ev.SessionID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte("interview.completed")},
			{Key: "session_id", Value: []byte(ev.SessionID)},
		},
	}
	if err := p.produceTx(ctx, rec); err != nil {
		return fmt.Errorf("op=redpanda.PublishInterviewCompleted: %w", err)
	}
	return nil
}

func (p *Producer) produceTx(ctx context.Context, rec *kgo.Record) error {
	select {
	case p.txLock <- struct{}{}:
		defer func() { <-p.txLock }()
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		if abortErr := p.client.EndTransaction(context.WithoutCancel(ctx), kgo.TryAbort); abortErr != nil {
			slog.Error("abort transaction failed", slog.Any("error", abortErr))
		}
		return fmt.Errorf("produce: %w", err)
	}
	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close releases the client.
// Ping checks that at least one broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("op=redpanda.Ping: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
