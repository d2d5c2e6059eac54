package realtime

import "time"

// Config describes connection registry settings.
type Config struct {
	EventBufferSize    int           `env:"REALTIME_EVENT_BUFFER_SIZE" envDefault:"64"`     // EventBufferSize is the per-connection outbound event buffer; overflow drops events.
	RateLimitCeiling   int64         `env:"REALTIME_RATE_LIMIT_CEILING" envDefault:"30"`    // RateLimitCeiling caps events per (user, event name) inside one window.
	RateLimitWindow    time.Duration `env:"REALTIME_RATE_LIMIT_WINDOW" envDefault:"60s"`    // RateLimitWindow is the rolling window for the ceiling.
	ReconcileInterval  time.Duration `env:"REALTIME_RECONCILE_INTERVAL" envDefault:"1m"`    // ReconcileInterval is the cadence of the membership reconciliation job.
	ShutdownTimeout    time.Duration `env:"REALTIME_SHUTDOWN_TIMEOUT" envDefault:"10s"`     // ShutdownTimeout bounds Close while connections drain.
}
