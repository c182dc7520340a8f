package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	obsctx "github.com/fairyhunter13/ai-mock-interviewer/internal/observability"
)

// PlanProcessor runs a queued plan job to completion.
type PlanProcessor interface {
	Process(ctx context.Context, planID string) error
}

// groupSession is the subset of *kgo.GroupTransactSession the consumer drives.
type groupSession interface {
	PollFetches(ctx context.Context) kgo.Fetches
	Begin() error
	End(ctx context.Context, commit kgo.TransactionEndTry) (bool, error)
	Close()
}

// Consumer reads plan jobs in read-committed mode and commits offsets
// inside the group transaction once a batch has been handled.
type Consumer struct {
	session     groupSession
	processor   PlanProcessor
	topic       string
	concurrency int
	poller      *AdaptivePoller
	sleep       func(ctx context.Context, d time.Duration)
}

// NewConsumer joins groupID on topic with a transactional session.
func NewConsumer(brokers []string, groupID, transactionalID, topic string, concurrency int, processor PlanProcessor) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: missing group id")
	}

	admin, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := createTopicIfNotExists(ctx, admin, topic, 3, 1); err != nil {
		slog.Warn("topic creation failed", slog.String("topic", topic), slog.Any("error", err))
	}
	cancel()
	admin.Close()

	kot := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))))
	session, err := kgo.NewGroupTransactSession(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.RequireStableFetchOffsets(),
		kgo.WithHooks(kot.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.RebalanceTimeout(10*time.Second),
		kgo.FetchMaxWait(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: %w", err)
	}
	slog.Info("redpanda consumer ready",
		slog.String("group_id", groupID),
		slog.String("topic", topic),
		slog.Int("concurrency", concurrency))
	return newConsumer(session, processor, topic, concurrency), nil
}

func newConsumer(session groupSession, processor PlanProcessor, topic string, concurrency int) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		session:     session,
		processor:   processor,
		topic:       topic,
		concurrency: concurrency,
		poller:      NewAdaptivePoller(200 * time.Millisecond),
		sleep:       sleepCtx,
	}
}

// Start polls until ctx is cancelled or the client is closed.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("plan consumer started", slog.String("topic", c.topic))
	for {
		if ctx.Err() != nil {
			return nil
		}
		fetches := c.session.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				slog.Error("fetch error",
					slog.String("topic", fe.Topic),
					slog.Int("partition", int(fe.Partition)),
					slog.Any("error", fe.Err))
			}
			c.poller.RecordFailure()
			c.sleep(ctx, c.poller.NextInterval())
			continue
		}
		if fetches.NumRecords() == 0 {
			c.sleep(ctx, c.poller.NextInterval())
			continue
		}
		if err := c.handleBatch(ctx, fetches); err != nil {
			slog.Error("plan batch failed", slog.Any("error", err))
			c.poller.RecordFailure()
			c.sleep(ctx, c.poller.NextInterval())
			continue
		}
		c.poller.RecordSuccess()
	}
}

// handleBatch processes every record of a poll and ends the transaction.
// Processor failures are recorded on the plan itself so the offsets still
// commit; only a cancelled context aborts the batch.
func (c *Consumer) handleBatch(ctx context.Context, fetches kgo.Fetches) error {
	if err := c.session.Begin(); err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	p := pool.New().WithMaxGoroutines(c.concurrency)
	fetches.EachRecord(func(r *kgo.Record) {
		p.Go(func() { c.handleRecord(ctx, r) })
	})
	p.Wait()

	try := kgo.TryCommit
	if ctx.Err() != nil {
		try = kgo.TryAbort
	}
	committed, err := c.session.End(context.WithoutCancel(ctx), try)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if !committed && try == kgo.TryCommit {
		slog.Warn("plan batch not committed; records will be redelivered")
	}
	return nil
}

func (c *Consumer) handleRecord(ctx context.Context, r *kgo.Record) {
	var payload domain.PlanTaskPayload
	if err := json.Unmarshal(r.Value, &payload); err != nil || payload.PlanID == "" {
		slog.Error("dropping malformed plan record",
			slog.Int64("offset", r.Offset),
			slog.Int("partition", int(r.Partition)),
			slog.Any("error", err))
		observability.JobsFailedTotal.WithLabelValues("plan").Inc()
		return
	}

	lg := slog.Default().With(slog.String("plan_id", payload.PlanID))
	ctx = obsctx.ContextWithLogger(ctx, lg)
	observability.StartProcessingJob("plan")
	if err := c.processor.Process(ctx, payload.PlanID); err != nil {
		lg.Error("plan processing failed", slog.Any("error", err))
		observability.FailJob("plan")
		return
	}
	observability.CompleteJob("plan")
}

// Close leaves the group.
func (c *Consumer) Close() {
	if c.session != nil {
		c.session.Close()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
