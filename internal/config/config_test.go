package config_test

import (
	"testing"
	"time"

	"github.com/ompugao/patto/internal/config"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PATTO_ROOT", "/notes")
	t.Setenv("PATTO_DEBOUNCE", "50ms")
	t.Setenv("PATTO_LOG_LEVEL", "debug")

	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	if cfg.Root != "/notes" {
		t.Errorf("Root = %q, want /notes", cfg.Root)
	}
	if cfg.DebounceWindow != 50*time.Millisecond {
		t.Errorf("DebounceWindow = %s, want 50ms", cfg.DebounceWindow)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestFinalizeRejectsInvalidLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "verbose"
	if err := config.Finalize(&cfg); err == nil {
		t.Fatalf("expected Finalize to reject an invalid log level")
	}
}

func TestFinalizeResolvesRootToAbsolute(t *testing.T) {
	cfg := config.Default()
	cfg.Root = "."
	if err := config.Finalize(&cfg); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Root == "." {
		t.Errorf("expected Root to be resolved to an absolute path")
	}
}
