package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// StalePlanMarker fails plan jobs stuck in processing.
type StalePlanMarker interface {
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// StuckPlanSweeper periodically fails plans whose worker died mid-run so
// callers polling the plan see a terminal status.
type StuckPlanSweeper struct {
	plans            StalePlanMarker
	maxProcessingAge time.Duration
	interval         time.Duration
	now              func() time.Time
}

func NewStuckPlanSweeper(plans StalePlanMarker, maxProcessingAge, interval time.Duration) *StuckPlanSweeper {
	if plans == nil {
		return nil
	}
	if maxProcessingAge <= 0 {
		maxProcessingAge = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &StuckPlanSweeper{
		plans:            plans,
		maxProcessingAge: maxProcessingAge,
		interval:         interval,
		now:              time.Now,
	}
}

func (s *StuckPlanSweeper) Run(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("stuck plan sweeper stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *StuckPlanSweeper) sweepOnce(ctx context.Context) int64 {
	ctx, span := otel.Tracer("plans.sweeper").Start(ctx, "StuckPlanSweeper.sweepOnce")
	defer span.End()
	span.SetAttributes(attribute.Float64("plans.max_processing_age_seconds", s.maxProcessingAge.Seconds()))

	msg := fmt.Sprintf("plan processing exceeded maximum age %v", s.maxProcessingAge)
	n, err := s.plans.FailStale(ctx, s.now().Add(-s.maxProcessingAge), msg)
	if err != nil {
		span.RecordError(err)
		slog.Error("stuck plan sweep failed", slog.Any("error", err))
		return 0
	}
	span.SetAttributes(attribute.Int64("plans.marked_failed", n))
	if n > 0 {
		slog.Warn("stuck plans marked failed", slog.Int64("count", n))
	}
	return n
}
