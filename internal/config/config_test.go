package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"uuid":"client-1"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.MaximumMessagesCacheSize != DefaultMaximumMessagesCacheSize {
		t.Fatalf("MaximumMessagesCacheSize = %d, want %d", cfg.MaximumMessagesCacheSize, DefaultMaximumMessagesCacheSize)
	}
	if cfg.RetryIntervalMillis != DefaultRetryIntervalMillis {
		t.Fatalf("RetryIntervalMillis = %d, want %d", cfg.RetryIntervalMillis, DefaultRetryIntervalMillis)
	}
}

func TestLoad_RejectsUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, `{"uuid":"client-1","logLevel":"trace"}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an invalid logLevel")
	}
}

func TestLoad_ExplicitZeroCacheSizeSurvivesDefaulting(t *testing.T) {
	path := writeConfig(t, `{"uuid":"client-1","maximumMessagesCacheSize":0}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaximumMessagesCacheSize != 0 {
		t.Fatalf("MaximumMessagesCacheSize = %d, want 0 (explicit disable must not be overridden)", cfg.MaximumMessagesCacheSize)
	}
}

func TestLoad_RejectsNegativeCacheSize(t *testing.T) {
	path := writeConfig(t, `{"uuid":"client-1","maximumMessagesCacheSize":-1}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a negative maximumMessagesCacheSize")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestRetryInterval_DefaultsWhenUnset(t *testing.T) {
	cfg := &Config{}
	if got := cfg.RetryInterval(); got.Milliseconds() != DefaultRetryIntervalMillis {
		t.Fatalf("RetryInterval() = %v, want %dms", got, DefaultRetryIntervalMillis)
	}
}
