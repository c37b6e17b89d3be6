package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EngineConfig holds the settings shared by every front end that drives a game.
type EngineConfig struct {
	CatalogFile string
	SettleDelay time.Duration
	Seed        int64
	LogLevel    slog.Level
}

type APIConfig struct {
	Addr   string
	Engine EngineConfig
}

// LoadDotEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadEngineFromEnv() (EngineConfig, error) {
	cfg := EngineConfig{
		CatalogFile: strings.TrimSpace(os.Getenv("MARKETSIM_CATALOG_FILE")),
		SettleDelay: envDurationDefault("MARKETSIM_SETTLE_DELAY", 2*time.Second),
		Seed:        envInt64Default("MARKETSIM_SEED", 0),
	}
	level, err := ParseLogLevel(envDefault("MARKETSIM_LOG_LEVEL", "info"))
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level
	if cfg.SettleDelay < 0 {
		return cfg, fmt.Errorf("MARKETSIM_SETTLE_DELAY must not be negative")
	}
	return cfg, nil
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("MARKETSIM_API_ADDR", ":8080")
	}
	engine, err := LoadEngineFromEnv()
	if err != nil {
		return APIConfig{Addr: addr}, err
	}
	return APIConfig{Addr: addr, Engine: engine}, nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
