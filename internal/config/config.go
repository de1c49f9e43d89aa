// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"arena/internal/game/poker"
	"arena/internal/storage"
)

// Config holds everything cmd/server needs to start.
type Config struct {
	Addr            string
	DBDriver        string
	DBPath          string // sqlite file
	DatabaseURL     string // postgres DSN
	LogLevel        zapcore.Level
	Poker           poker.Config
	CacheSize       int
	CleanupInterval time.Duration
	StaleGameAge    time.Duration
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == storage.DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads settings through getenv. Unset variables keep their defaults.
func LoadFrom(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	c := Config{
		Addr:            ":8080",
		DBDriver:        storage.DriverSQLite,
		DBPath:          "arena.db",
		LogLevel:        zapcore.InfoLevel,
		Poker:           poker.DefaultConfig(),
		CacheSize:       256,
		CleanupInterval: time.Minute,
		StaleGameAge:    time.Hour,
	}
	if p := env("PORT"); p != "" {
		c.Addr = ":" + p
	}
	switch d := strings.ToLower(env("DB_DRIVER")); d {
	case "", storage.DriverSQLite, "sqlite3":
	case storage.DriverPostgres, "postgresql":
		c.DBDriver = storage.DriverPostgres
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (supported: %s, %s)", d, storage.DriverSQLite, storage.DriverPostgres)
	}
	if p := env("DB_PATH"); p != "" {
		c.DBPath = p
	}
	c.DatabaseURL = env("DATABASE_URL")
	if c.DBDriver == storage.DriverPostgres && c.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", storage.DriverPostgres)
	}
	if l := env("LOG_LEVEL"); l != "" {
		if err := c.LogLevel.UnmarshalText([]byte(l)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", l, err)
		}
	}

	var err error
	if c.Poker.StartingStack, err = int64Env(env, "POKER_STARTING_STACK", c.Poker.StartingStack); err != nil {
		return Config{}, err
	}
	if c.Poker.SmallBlind, err = int64Env(env, "POKER_SMALL_BLIND", c.Poker.SmallBlind); err != nil {
		return Config{}, err
	}
	if c.Poker.BigBlind, err = int64Env(env, "POKER_BIG_BLIND", c.Poker.BigBlind); err != nil {
		return Config{}, err
	}
	size, err := int64Env(env, "SNAPSHOT_CACHE_SIZE", int64(c.CacheSize))
	if err != nil {
		return Config{}, err
	}
	if size <= 0 {
		return Config{}, fmt.Errorf("SNAPSHOT_CACHE_SIZE must be > 0")
	}
	c.CacheSize = int(size)
	if c.CleanupInterval, err = durationEnv(env, "CLEANUP_INTERVAL", c.CleanupInterval); err != nil {
		return Config{}, err
	}
	if c.StaleGameAge, err = durationEnv(env, "STALE_GAME_AGE", c.StaleGameAge); err != nil {
		return Config{}, err
	}
	return c, nil
}

func int64Env(env func(string) string, key string, def int64) (int64, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationEnv(env func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}
