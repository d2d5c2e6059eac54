package campsignal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/campsignal/campsignal/pkg/alerts"
	"github.com/campsignal/campsignal/pkg/cachestore"
	"github.com/campsignal/campsignal/pkg/logger"
	"github.com/campsignal/campsignal/pkg/notifcenter"
	"github.com/campsignal/campsignal/pkg/realtime"
	"github.com/campsignal/campsignal/pkg/scheduler"
)

// Config holds the background job cadences. Sweep timers are independent
// and uncoordinated; see pkg/scheduler.
type Config struct {
	PriceSweepInterval        time.Duration `env:"ALERT_PRICE_SWEEP_INTERVAL" envDefault:"5m"`
	AvailabilitySweepInterval time.Duration `env:"ALERT_AVAILABILITY_SWEEP_INTERVAL" envDefault:"10m"`
	ExpirySweepInterval       time.Duration `env:"ALERT_EXPIRY_SWEEP_INTERVAL" envDefault:"1h"`
	RetentionSweepInterval    time.Duration `env:"NOTIF_RETENTION_SWEEP_INTERVAL" envDefault:"24h"`
	ReconcileInterval         time.Duration `env:"REALTIME_RECONCILE_INTERVAL" envDefault:"1m"`
	CacheCleanupInterval      time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"10m"`
}

// Deps are the constructed components the App schedules and shuts down.
// Build them at process start and inject them here; nothing in this module
// reaches for globals.
type Deps struct {
	Cache     cachestore.Store
	Registry  *realtime.Registry
	Center    *notifcenter.Center
	Alerts    *alerts.Service
	Evaluator *alerts.Evaluator
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// App is the assembled alerting subsystem: cache, connection registry,
// notification center and alert evaluator, plus the scheduler that drives
// the periodic sweeps. Run blocks until the context is cancelled, then
// closes live connections eagerly and lets in-flight sweeps finish.
type App struct {
	cfg   Config
	deps  Deps
	sched *scheduler.Scheduler
	log   *slog.Logger
}

// New assembles an App from its components.
func New(cfg Config, deps Deps, opts ...Option) (*App, error) {
	switch {
	case deps.Cache == nil:
		return nil, errors.New("campsignal: cache is required")
	case deps.Registry == nil:
		return nil, errors.New("campsignal: registry is required")
	case deps.Center == nil:
		return nil, errors.New("campsignal: notification center is required")
	case deps.Alerts == nil:
		return nil, errors.New("campsignal: alert service is required")
	case deps.Evaluator == nil:
		return nil, errors.New("campsignal: alert evaluator is required")
	}

	a := &App{
		cfg:  cfg,
		deps: deps,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.sched = scheduler.New(scheduler.WithLogger(a.log))
	if err := a.registerJobs(); err != nil {
		return nil, err
	}
	return a, nil
}

// Registry exposes the connection registry for transport layers.
func (a *App) Registry() *realtime.Registry { return a.deps.Registry }

// Center exposes the notification center for request handlers.
func (a *App) Center() *notifcenter.Center { return a.deps.Center }

// Alerts exposes the alert service for request handlers.
func (a *App) Alerts() *alerts.Service { return a.deps.Alerts }

func (a *App) registerJobs() error {
	jobs := []struct {
		name     string
		interval time.Duration
		fn       scheduler.JobFunc
	}{
		{"price-sweep", a.cfg.PriceSweepInterval, func(ctx context.Context) error {
			_, err := a.deps.Evaluator.RunPriceSweep(ctx)
			return err
		}},
		{"availability-sweep", a.cfg.AvailabilitySweepInterval, func(ctx context.Context) error {
			_, err := a.deps.Evaluator.RunAvailabilitySweep(ctx)
			return err
		}},
		{"alert-expiry", a.cfg.ExpirySweepInterval, func(ctx context.Context) error {
			_, _, err := a.deps.Evaluator.RunExpirySweep(ctx)
			return err
		}},
		{"notification-retention", a.cfg.RetentionSweepInterval, func(ctx context.Context) error {
			_, err := a.deps.Center.RetentionSweep(ctx)
			return err
		}},
		{"registry-reconcile", a.cfg.ReconcileInterval, a.deps.Registry.Reconcile},
	}

	// Only the in-memory cache needs periodic expiry collection; Redis
	// expires keys itself.
	if cleaner, ok := a.deps.Cache.(interface {
		Cleanup(ctx context.Context) error
	}); ok {
		jobs = append(jobs, struct {
			name     string
			interval time.Duration
			fn       scheduler.JobFunc
		}{"cache-cleanup", a.cfg.CacheCleanupInterval, cleaner.Cleanup})
	}

	for _, j := range jobs {
		if err := a.sched.AddJob(j.name, j.interval, j.fn); err != nil {
			return err
		}
	}
	return nil
}

// Run starts the background sweeps and blocks until ctx is cancelled. On
// cancellation, live connections are closed eagerly while in-flight sweeps
// run to completion.
func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "campsignal starting", logger.Component("app"))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := a.deps.Registry.Close(); err != nil {
				a.log.WarnContext(ctx, "registry shutdown incomplete",
					logger.Component("app"), logger.Error(err))
			}
		case <-done:
		}
	}()

	err := a.sched.Start(ctx)
	a.log.InfoContext(ctx, "campsignal stopped", logger.Component("app"))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
