package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campsignal/campsignal/pkg/logger"
)

// JobFunc is one scheduled unit of work. The context is cancelled on
// shutdown; a running job is allowed to finish before the scheduler stops.
type JobFunc func(ctx context.Context) error

type job struct {
	name       string
	interval   time.Duration
	fn         JobFunc
	runOnStart bool
}

// JobOption configures a registered job.
type JobOption func(*job)

// WithRunOnStart runs the job once immediately when the scheduler starts,
// before the first tick.
func WithRunOnStart() JobOption {
	return func(j *job) { j.runOnStart = true }
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for job lifecycle and failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// Scheduler runs registered jobs on independent fixed intervals, one
// goroutine per job. Jobs run to completion: a tick that fires while the
// previous run is still in flight is absorbed, never stacked. A job error
// or panic is logged and the job keeps its schedule.
type Scheduler struct {
	jobs    []job
	log     *slog.Logger
	started bool
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a named periodic job. All jobs must be registered
// before Start is called.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc, opts ...JobOption) error {
	if s.started {
		return errors.New("scheduler already started")
	}
	if name == "" {
		return errors.New("job name is required")
	}
	if interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}
	if fn == nil {
		return fmt.Errorf("job %q: func is required", name)
	}
	for _, existing := range s.jobs {
		if existing.name == name {
			return fmt.Errorf("job %q already registered", name)
		}
	}

	j := job{name: name, interval: interval, fn: fn}
	for _, opt := range opts {
		opt(&j)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start runs all registered jobs until ctx is cancelled, then waits for
// in-flight runs to finish. It always returns ctx's cancellation cause.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.started {
		return errors.New("scheduler already started")
	}
	s.started = true

	s.log.InfoContext(ctx, "scheduler starting",
		logger.Component("scheduler"),
		slog.Int("jobs", len(s.jobs)))

	g, ctx := errgroup.WithContext(ctx)
	for _, j := range s.jobs {
		g.Go(func() error {
			s.runLoop(ctx, j)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Scheduler) runLoop(ctx context.Context, j job) {
	if j.runOnStart {
		s.runOnce(ctx, j)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "job stopped", logger.Component("scheduler"), logger.Job(j.name))
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "job panicked",
				logger.Component("scheduler"),
				logger.Job(j.name),
				slog.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		// Shutdown mid-run is not a job failure.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		s.log.ErrorContext(ctx, "job failed",
			logger.Component("scheduler"),
			logger.Job(j.name),
			slog.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return
	}

	s.log.DebugContext(ctx, "job finished",
		logger.Component("scheduler"),
		logger.Job(j.name),
		slog.Duration("elapsed", time.Since(start)))
}
