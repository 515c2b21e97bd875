package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = make(map[reflect.Type]any)

	dotOnce sync.Once
	dotErr  error
)

// Load parses environment variables into the given struct pointer.
// The first call for each concrete type performs the parse; subsequent calls
// return the cached value. A .env file in the working directory is loaded
// once before the first parse, if present.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}

	// A missing .env file is not an error; a malformed one is.
	dotOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			dotErr = err
		}
	})
	if dotErr != nil {
		return fmt.Errorf("config: load .env: %w", dotErr)
	}

	mu.Lock()
	defer mu.Unlock()

	typ := reflect.TypeOf(*cfg)
	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	cache[typ] = *cfg
	return nil
}

// MustLoad is like Load but panics on failure. Intended for process startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
