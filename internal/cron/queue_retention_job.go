package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart/pkg/logger"
)

const defaultQueueRetention = 72 * time.Hour

type QueueRetentionJobParams struct {
	Logger     *logger.Logger
	Repository queueRetentionRepo
	Retention  time.Duration
}

type queueRetentionRepo interface {
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewQueueRetentionJob removes applied and failed offline mutations once they
// are older than the retention window. Pending rows are never touched.
func NewQueueRetentionJob(params QueueRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultQueueRetention
	}
	return &queueRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type queueRetentionJob struct {
	logg      *logger.Logger
	repo      queueRetentionRepo
	retention time.Duration
	now       func() time.Time
}

func (j *queueRetentionJob) Name() string { return "offline-queue-retention" }

func (j *queueRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("offline queue retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "offline queue retention cleanup complete")
	return nil
}
