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
	cacheMu sync.Mutex
	cache   = make(map[string]any)

	defaultEnvOnce sync.Once
)

// LoadEnv loads one or more .env files into the process environment.
// Later files take precedence over earlier ones. It also marks the
// default .env as loaded so Load does not re-read it.
func LoadEnv(paths ...string) error {
	defaultEnvOnce.Do(func() {})
	for _, p := range paths {
		if err := godotenv.Overload(p); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}
	return nil
}

// MustLoadEnv is LoadEnv that panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// Load parses environment variables into v based on its `env` field tags.
// The first call for a given struct type does the parsing; subsequent
// calls return the cached copy. A default .env file in the working
// directory is loaded once, if present, before the first parse.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvOnce.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cache[key] = *v
	return nil
}

// MustLoad is Load that panics on failure. Intended for configuration the
// application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ForceReload re-parses v from the current environment, replacing any
// cached copy. Useful in tests that change env vars with t.Setenv.
func ForceReload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cache[typeName[T]()] = *v
	return nil
}

// ResetCache drops all cached configuration values.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[string]any)
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
