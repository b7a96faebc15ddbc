package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultEventsRetention = 90 * 24 * time.Hour

type eventPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job prunes safety telemetry past its retention window. The ledger tables
// are never touched here.
type Job struct {
	events    eventPruner
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewEventsCleanupJob(events eventPruner, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultEventsRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		events:    events,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.events == nil {
		return nil
	}

	cutoff := j.now().UTC().Add(-j.retention)
	rows, err := j.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup safety events: %w", err)
	}
	if rows > 0 {
		j.logger.Info("cleanup safety events completed",
			zap.Int64("deleted", rows),
			zap.Time("cutoff", cutoff),
		)
	}

	return nil
}
