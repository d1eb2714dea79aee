package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

type blockingJob struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingJob() *blockingJob {
	return &blockingJob{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (j *blockingJob) Refresh(ctx context.Context) (*models.Snapshot, error) {
	j.calls.Add(1)
	j.started <- struct{}{}
	select {
	case <-j.release:
		return &models.Snapshot{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitStarted(t *testing.T, j *blockingJob) {
	t.Helper()
	select {
	case <-j.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("cycle did not start")
	}
}

func TestRunOnStartAndSkipWhileRunning(t *testing.T) {
	job := newBlockingJob()
	s := New(job, Config{Interval: time.Hour, RunOnStart: true}, applogger.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitStarted(t, job)

	if !s.Running() {
		t.Fatalf("expected a running cycle")
	}
	if s.TriggerNow("manual") {
		t.Fatalf("trigger should be rejected while a cycle runs")
	}

	close(job.release)
	deadline := time.Now().Add(2 * time.Second)
	for s.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !s.TriggerNow("manual") {
		t.Fatalf("trigger should start once idle")
	}
	waitStarted(t, job)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := job.calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestStopCancelsInFlightCycle(t *testing.T) {
	job := newBlockingJob()
	s := New(job, Config{Interval: time.Hour}, applogger.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.TriggerNow("manual") {
		t.Fatalf("trigger rejected")
	}
	waitStarted(t, job)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.Running() {
		t.Fatalf("cycle still running after Stop")
	}
	if s.TriggerNow("late") {
		t.Fatalf("trigger accepted after Stop")
	}
}

func TestIntervalTicks(t *testing.T) {
	job := newBlockingJob()
	close(job.release)
	s := New(job, Config{Interval: time.Second}, applogger.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-job.started:
	case <-time.After(3 * time.Second):
		t.Fatalf("no tick within 3s")
	}
}
