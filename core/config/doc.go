// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	type DatabaseConfig struct {
//		Host string `env:"DB_HOST" envDefault:"localhost"`
//		Port int    `env:"DB_PORT" envDefault:"5432"`
//	}
//
//	var db DatabaseConfig
//	if err := config.Load(&db); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&db)
//
// Parse skips the cache and always reads the current environment.
//
// # Preferences
//
// Preferences tunes the dispatch engine: the serving and client retry loop
// bounds (RELAY_MAX_RETRY_LOOPS, RELAY_CLIENT_MAX_RETRY_LOOPS, both 1000 by
// default), an optional retry time budget (RELAY_MAX_RETRY_TIME) and the
// production flag that hides diagnostics in error responses (RELAY_PRODUCTION).
//
//	prefs, err := config.LoadPreferences()
package config
