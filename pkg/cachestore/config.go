package cachestore

// Config describes cache store settings.
type Config struct {
	// Namespace is the deployment tag prefixed to every key, e.g.
	// "campsignal-prod". It prevents collisions when several environments
	// share one Redis instance.
	Namespace string `env:"CACHE_NAMESPACE" envDefault:"campsignal"`
}
