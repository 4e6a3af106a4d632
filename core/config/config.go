package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	envOnce sync.Once
	cache   sync.Map // reflect.Type -> loaded value
)

func loadDotEnv() {
	envOnce.Do(func() {
		// A missing .env file is not an error; the process environment is used as is.
		_ = godotenv.Load()
	})
}

// Load parses environment variables into cfg. Each type is parsed once and
// served from cache afterwards.
func Load[T any](cfg *T) error {
	loadDotEnv()

	typ := reflect.TypeFor[T]()
	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	loaded, err := Parse[T]()
	if err != nil {
		return err
	}

	actual, _ := cache.LoadOrStore(typ, loaded)
	*cfg = actual.(T)
	return nil
}

// MustLoad is Load that panics on failure.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Parse reads environment variables into a new T, bypassing the cache.
func Parse[T any]() (T, error) {
	loadDotEnv()

	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", reflect.TypeFor[T](), err)
	}
	return cfg, nil
}
