package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/solecart/pkg/logger"
)

type fakeQueueRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeQueueRepo) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestQueueRetentionJobUsesRetentionWindow(t *testing.T) {
	t.Parallel()
	repo := &fakeQueueRepo{deleted: 3}
	job, err := NewQueueRetentionJob(QueueRetentionJobParams{Logger: logger.Nop(), Repository: repo})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.(*queueRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-72 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, repo.cutoff)
	}
	if job.Name() != "offline-queue-retention" {
		t.Fatalf("unexpected name %q", job.Name())
	}
}

func TestQueueRetentionJobPropagatesError(t *testing.T) {
	t.Parallel()
	repo := &fakeQueueRepo{err: errors.New("db down")}
	job, _ := NewQueueRetentionJob(QueueRetentionJobParams{Logger: logger.Nop(), Repository: repo, Retention: time.Hour})
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

type fakePruner struct {
	ttl     time.Duration
	removed int
	err     error
}

func (f *fakePruner) Prune(_ context.Context, ttl time.Duration) (int, error) {
	f.ttl = ttl
	return f.removed, f.err
}

func TestSessionPruneJob(t *testing.T) {
	t.Parallel()
	pruner := &fakePruner{removed: 2}
	job, err := NewSessionPruneJob(SessionPruneJobParams{Logger: logger.Nop(), Sessions: pruner, IdleTTL: 5 * time.Minute})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if pruner.ttl != 5*time.Minute {
		t.Fatalf("expected ttl passed through, got %v", pruner.ttl)
	}

	pruner.err = errors.New("boom")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected prune error")
	}
	if _, err := NewSessionPruneJob(SessionPruneJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatalf("expected missing registry error")
	}
}
