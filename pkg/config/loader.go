package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu    sync.RWMutex
	cache      = make(map[string]any)
	dotenvOnce sync.Once
)

// LoadEnv loads the given .env files into the process environment.
// Missing files are reported as an error; call it only when the files
// are expected to exist. The default .env is loaded lazily by Load.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFiles, err)
	}
	return nil
}

// Load populates cfg from the process environment based on `env` field tags.
// Each configuration type is parsed once per process; later calls return the
// cached copy. The default .env file is loaded on first use if present.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional, absence is not an error.
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	cacheMu.RLock()
	cached, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cacheMu.Lock()
	// Store a copy so callers cannot mutate the cached value.
	cache[key] = *cfg
	cacheMu.Unlock()

	return nil
}

// MustLoad works like Load but panics on failure. Intended for configuration
// the process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeKey[T](), err))
	}
}

// ResetCache clears all cached configurations. Intended for tests that
// change the process environment between loads.
func ResetCache() {
	cacheMu.Lock()
	cache = make(map[string]any)
	cacheMu.Unlock()
}

func typeKey[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
