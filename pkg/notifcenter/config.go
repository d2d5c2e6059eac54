package notifcenter

import "time"

// Config holds notification center tunables populated from the environment.
type Config struct {
	// UnreadCountTTL bounds staleness of the cached unread counter when an
	// invalidation is lost.
	UnreadCountTTL time.Duration `env:"NOTIF_UNREAD_COUNT_TTL" envDefault:"5m"`

	// RetentionHorizon is how long read notifications are kept before the
	// retention sweep removes them.
	RetentionHorizon time.Duration `env:"NOTIF_RETENTION_HORIZON" envDefault:"720h"`
}
