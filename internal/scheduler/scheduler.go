package scheduler

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
)

// MinInterval is the shortest spacing allowed between two refresh cycles.
const MinInterval = 60 * time.Second

// Refresher is the state the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context)
	RecordFailure(msg string)
}

// Scheduler runs the periodic refresh.
type Scheduler struct {
	Cron     *cron.Cron
	State    Refresher
	Interval time.Duration
	Ctx      context.Context

	job cron.Job
}

// ClampInterval raises interval to MinInterval when it is shorter.
func ClampInterval(interval time.Duration) time.Duration {
	if interval < MinInterval {
		return MinInterval
	}
	return interval
}

// NewScheduler creates a new Scheduler. The interval is clamped to MinInterval.
func NewScheduler(ctx context.Context, state Refresher, interval time.Duration) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	s := &Scheduler{
		Cron:     cron.New(),
		State:    state,
		Interval: ClampInterval(interval),
		Ctx:      ctx,
	}
	// Ticks and RunNow share one wrapped job, so a cycle that overruns the
	// interval delays the next one instead of overlapping it.
	s.job = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.refreshTask))
	return s
}

// Register adds the refresh job. Call once before Start.
func (s *Scheduler) Register() error {
	if s.State == nil {
		return fmt.Errorf("register refresh task: no state")
	}
	s.Cron.Schedule(cron.Every(s.Interval), s.job)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started, refresh every %s", s.Interval)
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one refresh cycle immediately with the same crash handling.
// It is skipped when a cycle is already in flight.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

func (s *Scheduler) refreshTask() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] refresh crashed: %v\n%s", r, debug.Stack())
			s.State.RecordFailure(fmt.Sprintf("refresh crashed: %v", r))
		}
	}()
	log.Println("[INFO] running refresh")
	s.State.Refresh(s.Ctx)
}
