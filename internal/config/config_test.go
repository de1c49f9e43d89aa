package config

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"arena/internal/storage"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":8080" || c.DBDriver != storage.DriverSQLite || c.DSN() != "arena.db" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.LogLevel != zapcore.InfoLevel || c.CacheSize != 256 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Poker.StartingStack != 1000 || c.Poker.SmallBlind != 10 || c.Poker.BigBlind != 20 {
		t.Fatalf("unexpected poker defaults: %+v", c.Poker)
	}
	if c.CleanupInterval != time.Minute || c.StaleGameAge != time.Hour {
		t.Fatalf("unexpected cleanup defaults: %v %v", c.CleanupInterval, c.StaleGameAge)
	}
}

func TestOverrides(t *testing.T) {
	c, err := LoadFrom(envMap(map[string]string{
		"PORT":                 "9000",
		"DB_DRIVER":            "PostgreSQL",
		"DATABASE_URL":         " postgres://arena@localhost/arena ",
		"LOG_LEVEL":            "debug",
		"POKER_STARTING_STACK": "500",
		"POKER_SMALL_BLIND":    "5",
		"POKER_BIG_BLIND":      "10",
		"SNAPSHOT_CACHE_SIZE":  "32",
		"CLEANUP_INTERVAL":     "30s",
		"STALE_GAME_AGE":       "2h",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":9000" || c.DBDriver != storage.DriverPostgres {
		t.Fatalf("unexpected server settings: %+v", c)
	}
	if c.DSN() != "postgres://arena@localhost/arena" {
		t.Fatalf("unexpected DSN %q", c.DSN())
	}
	if c.LogLevel != zapcore.DebugLevel || c.CacheSize != 32 {
		t.Fatalf("unexpected settings: %+v", c)
	}
	if c.Poker.StartingStack != 500 || c.Poker.SmallBlind != 5 || c.Poker.BigBlind != 10 {
		t.Fatalf("unexpected poker config: %+v", c.Poker)
	}
	if c.CleanupInterval != 30*time.Second || c.StaleGameAge != 2*time.Hour {
		t.Fatalf("unexpected cleanup settings: %v %v", c.CleanupInterval, c.StaleGameAge)
	}
}

func TestInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"DB_DRIVER":            {"DB_DRIVER": "mysql"},
		"DATABASE_URL":         {"DB_DRIVER": "postgres"},
		"LOG_LEVEL":            {"LOG_LEVEL": "loud"},
		"POKER_STARTING_STACK": {"POKER_STARTING_STACK": "lots"},
		"POKER_BIG_BLIND":      {"POKER_BIG_BLIND": "1.5"},
		"SNAPSHOT_CACHE_SIZE":  {"SNAPSHOT_CACHE_SIZE": "0"},
		"CLEANUP_INTERVAL":     {"CLEANUP_INTERVAL": "soon"},
		"STALE_GAME_AGE":       {"STALE_GAME_AGE": "-1h"},
	}
	for key, env := range cases {
		_, err := LoadFrom(envMap(env))
		if err == nil {
			t.Errorf("%s: expected error", key)
			continue
		}
		if !strings.Contains(err.Error(), key) {
			t.Errorf("%s: error should name the variable, got %v", key, err)
		}
	}
}
