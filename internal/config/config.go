// Package config manages application configuration from environment
// variables and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const envPrefix = "PATTO_"

// Config holds runtime configuration for the repository engine and its
// entrypoints.
type Config struct {
	Root            string
	DebounceWindow  time.Duration
	BroadcastBuffer int
	DocsBaseURL     string
	LogLevel        string
	IncludeHidden   bool
}

// Default returns ready-to-use defaults prior to env/flag overrides.
func Default() Config {
	return Config{
		Root:            ".",
		DebounceWindow:  10 * time.Millisecond,
		BroadcastBuffer: 100,
		DocsBaseURL:     "",
		LogLevel:        "info",
		IncludeHidden:   false,
	}
}

// RegisterFlags attaches configuration flags to the provided FlagSet.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Root, "root", "r", cfg.Root, "root directory containing .pn notes")
	fs.DurationVar(&cfg.DebounceWindow, "debounce", cfg.DebounceWindow, "per-file write debounce window")
	fs.IntVar(&cfg.BroadcastBuffer, "broadcast-buffer", cfg.BroadcastBuffer, "per-subscriber message buffer size")
	fs.StringVar(&cfg.DocsBaseURL, "docs-base-url", cfg.DocsBaseURL, "base URL prefixed to diagnostic doc links (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, or error")
	fs.BoolVar(&cfg.IncludeHidden, "include-hidden", cfg.IncludeHidden, "watch and scan dot-prefixed directories")
}

// ApplyEnvOverrides reads supported environment variables and overrides cfg
// in place.
func ApplyEnvOverrides(cfg *Config) {
	applyStringEnv("ROOT", func(v string) { cfg.Root = v })
	applyDurationEnv("DEBOUNCE", func(v time.Duration) { cfg.DebounceWindow = v })
	applyIntEnv("BROADCAST_BUFFER", func(v int) { cfg.BroadcastBuffer = v })
	applyStringEnv("DOCS_BASE_URL", func(v string) { cfg.DocsBaseURL = v })
	applyStringEnv("LOG_LEVEL", func(v string) { cfg.LogLevel = v })
	applyBoolEnv("INCLUDE_HIDDEN", func(v bool) { cfg.IncludeHidden = v })
}

func applyStringEnv(key string, apply func(string)) {
	if raw, ok := lookupNonEmpty(key); ok {
		apply(raw)
	}
}

func applyIntEnv(key string, apply func(int)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.Atoi(raw); err == nil {
			apply(value)
		}
	}
}

func applyBoolEnv(key string, apply func(bool)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.ParseBool(raw); err == nil {
			apply(value)
		}
	}
}

func applyDurationEnv(key string, apply func(time.Duration)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := time.ParseDuration(raw); err == nil {
			apply(value)
		}
	}
}

func lookupNonEmpty(key string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

// Finalize validates and normalizes cfg in place.
func Finalize(cfg *Config) error {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("resolve root directory: %w", err)
	}
	cfg.Root = root

	if cfg.DebounceWindow <= 0 {
		return fmt.Errorf("invalid debounce window: %s", cfg.DebounceWindow)
	}
	if cfg.BroadcastBuffer <= 0 {
		return fmt.Errorf("invalid broadcast buffer size: %d", cfg.BroadcastBuffer)
	}
	cfg.DocsBaseURL = strings.TrimSuffix(cfg.DocsBaseURL, "/")

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", cfg.LogLevel)
	}

	return nil
}

// SlogLevel converts the validated LogLevel string to the matching
// log/slog level value.
func (c Config) SlogLevel() int {
	switch c.LogLevel {
	case "debug":
		return -4
	case "warn":
		return 4
	case "error":
		return 8
	default:
		return 0
	}
}
