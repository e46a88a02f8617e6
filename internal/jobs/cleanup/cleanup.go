package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type trailPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job prunes moderation log rows older than the retention window.
type Job struct {
	pruner    trailPruner
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(pruner trailPruner, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 180 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.pruner == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	rows, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune moderation log: %w", err)
	}
	if rows > 0 {
		j.logger.Info("moderation log retention completed", zap.Int64("deleted", rows))
	}

	return nil
}
