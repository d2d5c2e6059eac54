// Package config loads application configuration from environment variables
// into typed structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 so that
// every component can declare its configuration as a struct with `env` tags
// and load it with a single call:
//
//	type CacheConfig struct {
//	    Namespace string        `env:"CACHE_NAMESPACE" envDefault:"campsignal"`
//	    UnreadTTL time.Duration `env:"CACHE_UNREAD_TTL" envDefault:"5m"`
//	}
//
//	var cfg CacheConfig
//	config.MustLoad(&cfg)
//
// Each configuration type is parsed at most once per process and served from
// an in-memory cache afterwards. Use ResetCache in tests that mutate the
// environment between loads.
package config
