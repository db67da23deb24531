package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/angelmondragon/solecart/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	busy     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired || f.busy {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordedJobs struct {
	success []string
	failure []string
	cycles  []string
}

func (r *recordedJobs) ObserveJob(job string, _ time.Duration, err error) {
	if err != nil {
		r.failure = append(r.failure, job)
		return
	}
	r.success = append(r.success, job)
}

func (r *recordedJobs) ObserveCycle(result string) { r.cycles = append(r.cycles, result) }

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	t.Parallel()
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry, err := NewRegistry(success, failure)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	lock := &fakeLock{}
	recorder := &recordedJobs{}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  recorder,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", success.runs, failure.runs)
	}
	if lock.releases != 1 || lock.acquired {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
	if len(recorder.success) != 1 || len(recorder.failure) != 1 {
		t.Fatalf("unexpected metrics %+v", recorder)
	}
	if recorder.failure[0] != "fail" {
		t.Fatalf("expected failure recorded for fail, got %v", recorder.failure)
	}
	if len(recorder.cycles) != 1 || recorder.cycles[0] != metrics.CycleRan {
		t.Fatalf("expected one completed cycle, got %v", recorder.cycles)
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	t.Parallel()
	job := &testJob{name: "only"}
	registry, _ := NewRegistry(job)
	lock := &fakeLock{busy: true}
	recorder := &recordedJobs{}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: registry, Lock: lock, Metrics: recorder})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job should not run without the lock")
	}
	if lock.releases != 0 {
		t.Fatalf("lock should not be released when never acquired")
	}
	if len(recorder.cycles) != 1 || recorder.cycles[0] != metrics.CycleSkipped {
		t.Fatalf("expected skipped cycle, got %v", recorder.cycles)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	job := &testJob{name: "tick"}
	registry, _ := NewRegistry(job)
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Lock:     &LocalLock{},
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected one immediate run, got %d", job.runs)
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	t.Parallel()
	if _, err := NewService(ServiceParams{Lock: &LocalLock{}}); err == nil {
		t.Fatalf("expected logger error")
	}
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatalf("expected lock error")
	}
}
