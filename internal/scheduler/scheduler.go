// Package scheduler runs polling cycles on a schedule, one at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/campwatch/internal/availability"
	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/logger"
	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/notify"
	"github.com/example/campwatch/internal/runs"
)

const DefaultInterval = time.Minute

// ErrNotIdle is returned by RunCycle when the scheduler cannot start a cycle.
var ErrNotIdle = errors.New("scheduler is not idle")

type WindowGenerator interface {
	Generate(ctx context.Context, opts dates.Options) ([]dates.Window, error)
}

type Crawler interface {
	Crawl(ctx context.Context, windows []dates.Window) ([]availability.Weekend, error)
}

// History records finished cycles. Optional.
type History interface {
	Record(ctx context.Context, run runs.Run) (int64, error)
}

// Snapshot is the crawl result of the last cycle that got past crawling.
type Snapshot struct {
	Windows    []dates.Window         `json:"windows"`
	Weekends   []availability.Weekend `json:"weekends"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Scheduler generates windows, crawls them, and notifies about campgrounds
// not reported by the previous successful cycle.
type Scheduler struct {
	Windows    WindowGenerator
	Options    dates.Options
	Crawler    Crawler
	Dedup      *notify.State
	Dispatcher *notify.Dispatcher
	History    History
	Metrics    *metrics.Metrics
	Logger     logger.Logger

	// Schedule is a cron spec. When empty the scheduler runs every Interval.
	Schedule    string
	Interval    time.Duration
	Location    *time.Location
	FailureMode FailureMode

	cycleMu sync.Mutex

	mu     sync.RWMutex
	state  State
	latest *Snapshot
	last   runs.Run
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Latest returns the last crawl snapshot, or nil before the first one.
func (s *Scheduler) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// LastRun returns the summary of the last finished cycle.
func (s *Scheduler) LastRun() runs.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) transition(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanTransition(to) {
		return false
	}
	s.state = to
	return true
}

// Run executes a cycle immediately, then one per schedule tick, until ctx is
// done or, with FailureMode Stop, a cycle fails.
func (s *Scheduler) Run(ctx context.Context) error {
	clog := cronLogger{log: s.log()}
	sched, err := s.parseSchedule()
	if err != nil {
		return err
	}

	failed := make(chan error, 1)
	job := cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).Then(cron.FuncJob(func() {
		_, err := s.RunCycle(ctx)
		if err == nil || ctx.Err() != nil || s.failureMode() != Stop {
			return
		}
		select {
		case failed <- err:
		default:
		}
	}))

	s.log().Info("Scheduler started",
		logger.String("schedule", s.spec()),
		logger.String("failure_mode", string(s.failureMode())),
	)

	// kick immediately
	job.Run()
	select {
	case err := <-failed:
		return s.terminate(ctx, err)
	default:
	}

	c := cron.New(cron.WithLocation(s.location()), cron.WithLogger(clog))
	c.Schedule(sched, job)
	c.Start()
	select {
	case <-ctx.Done():
		<-c.Stop().Done()
		s.transition(Terminated)
		s.log().Info("Scheduler stopped")
		return ctx.Err()
	case err := <-failed:
		<-c.Stop().Done()
		return s.terminate(ctx, err)
	}
}

// terminate ends a fail-fast run and sends a best-effort final notice.
func (s *Scheduler) terminate(ctx context.Context, cause error) error {
	s.transition(Terminated)
	s.log().Error("Scheduler terminated", logger.Error(cause), logger.String("class", internaltypes.Class(cause)))

	if s.Dispatcher != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		msg := notify.Escape(fmt.Sprintf("campwatch stopped (%s): %v", internaltypes.Class(cause), cause))
		if _, err := s.Dispatcher.Send(nctx, msg); err != nil {
			s.log().Warn("Final notification failed", logger.Error(err))
		}
	}
	return cause
}

// RunCycle performs one generate, crawl, dedupe and notify pass. Dedup state
// is committed only once the notification went out, or when there was
// nothing to send.
func (s *Scheduler) RunCycle(ctx context.Context) (runs.Run, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if !s.transition(Running) {
		return runs.Run{}, fmt.Errorf("%w: %s", ErrNotIdle, s.State())
	}

	run := runs.Run{StartedAt: time.Now()}
	err := s.safeCycle(ctx, &run)
	run.FinishedAt = time.Now()

	if err != nil {
		run.Outcome = runs.OutcomeFailed
		run.ErrorClass = internaltypes.Class(err)
		msg := err.Error()
		run.Error = &msg
		s.transition(Failed)
		s.log().Error("Cycle failed",
			logger.Error(err),
			logger.String("class", run.ErrorClass),
			logger.Duration("duration", run.Duration()),
		)
	} else {
		run.Outcome = runs.OutcomeSucceeded
		s.transition(Succeeded)
		s.log().Info("Cycle finished",
			logger.Int("windows", run.Windows),
			logger.Int("available", run.Available),
			logger.Int("notified", run.Notified),
			logger.Bool("delivered", run.Delivered),
			logger.Duration("duration", run.Duration()),
		)
	}
	s.Metrics.ObserveCycle(run.Outcome, run.Duration())
	s.record(ctx, run)

	s.mu.Lock()
	s.last = run
	s.mu.Unlock()

	if err == nil || s.failureMode() != Stop {
		s.transition(Idle)
	}
	return run, err
}

// safeCycle turns a panic inside the cycle into an error so the state
// machine still leaves Running.
func (s *Scheduler) safeCycle(ctx context.Context, run *runs.Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	return s.cycle(ctx, run)
}

func (s *Scheduler) cycle(ctx context.Context, run *runs.Run) error {
	windows, err := s.Windows.Generate(ctx, s.Options)
	if err != nil {
		return fmt.Errorf("generate windows: %w", err)
	}
	run.Windows = len(windows)

	weekends, err := s.Crawler.Crawl(ctx, windows)
	if err != nil {
		return err
	}
	run.Available = availability.CountCampgrounds(weekends)
	s.Metrics.SetAvailable(run.Available)

	s.mu.Lock()
	s.latest = &Snapshot{Windows: windows, Weekends: weekends, FinishedAt: time.Now()}
	s.mu.Unlock()

	plan := s.Dedup.Prepare(weekends)
	run.Notified = availability.CountCampgrounds(plan.Weekends)

	if !plan.Empty() && s.Dispatcher != nil {
		sent, err := s.Dispatcher.Send(ctx, notify.Render(plan.Weekends))
		if err != nil {
			return err
		}
		run.Delivered = sent
	}

	s.Dedup.Commit(plan)
	s.Metrics.AddNotified(run.Notified)
	return nil
}

func (s *Scheduler) record(ctx context.Context, run runs.Run) {
	if s.History == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.History.Record(rctx, run); err != nil {
		s.log().Warn("Record cycle history failed", logger.Error(err))
	}
}

func (s *Scheduler) spec() string {
	if s.Schedule != "" {
		return s.Schedule
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return "@every " + interval.String()
}

func (s *Scheduler) parseSchedule() (cron.Schedule, error) {
	sched, err := cron.ParseStandard(s.spec())
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %v: %w", s.spec(), err, internaltypes.ErrConfiguration)
	}
	return sched, nil
}

func (s *Scheduler) failureMode() FailureMode {
	if s.FailureMode == "" {
		return Continue
	}
	return s.FailureMode
}

func (s *Scheduler) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s *Scheduler) log() logger.Logger {
	if s.Logger == nil {
		return logger.NewNop()
	}
	return s.Logger
}
