package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Refresher is the job run on every tick.
type Refresher interface {
	Refresh(ctx context.Context) (*models.Snapshot, error)
}

type Config struct {
	Interval   time.Duration
	RunOnStart bool
}

// Scheduler runs refresh cycles on a fixed cadence. At most one cycle runs at
// a time; a tick or trigger that arrives while one is running is skipped.
type Scheduler struct {
	cron *cron.Cron
	job  Refresher
	cfg  Config
	log  *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	running atomic.Bool
	wg      sync.WaitGroup
}

func New(job Refresher, cfg Config, l *applogger.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	adapter := cronLogger{l: l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(adapter), cron.WithChain(cron.Recover(adapter))),
		job:    job,
		cfg:    cfg,
		log:    l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the periodic job and, when configured, kicks off the first
// cycle immediately.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, func() { s.run("schedule") }); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Duration("interval", s.cfg.Interval), applogger.Bool("run_on_start", s.cfg.RunOnStart))

	if s.cfg.RunOnStart {
		s.TriggerNow("startup")
	}
	return nil
}

// TriggerNow starts a cycle in the background. It returns false when a cycle
// is already running or the scheduler is stopped.
func (s *Scheduler) TriggerNow(reason string) bool {
	if !s.acquire() {
		return false
	}
	go func() {
		defer s.release()
		s.cycle(reason)
	}()
	return true
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool { return s.running.Load() }

// Stop cancels an in-flight cycle and waits for it to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("scheduler stop timed out"), ctx.Err())
	}
}

func (s *Scheduler) run(reason string) {
	if !s.acquire() {
		s.log.Warn("refresh still running, tick skipped", applogger.String("reason", reason))
		return
	}
	defer s.release()
	s.cycle(reason)
}

func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Scheduler) release() {
	s.running.Store(false)
	s.wg.Done()
}

func (s *Scheduler) cycle(reason string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("refresh cycle panicked", applogger.Any("panic", r), applogger.String("reason", reason))
		}
	}()

	s.log.Info("refresh cycle started", applogger.String("reason", reason))
	if _, err := s.job.Refresh(s.ctx); err != nil {
		s.log.Error("refresh cycle failed", applogger.String("reason", reason), applogger.Error(err))
	}
}

// cronLogger routes cron's own logging through the application logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(kvFields(keysAndValues), applogger.Error(err))...)
}

func kvFields(kv []interface{}) []applogger.Field {
	fields := make([]applogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, applogger.Any(key, kv[i+1]))
	}
	return fields
}
