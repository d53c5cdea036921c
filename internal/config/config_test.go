package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	for _, key := range []string{EnvPort, EnvLogLevel, EnvServiceURL, EnvPollInterval, EnvRequestTimeout, EnvBatchStagger, EnvAPIToken, EnvHeadless} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.ServiceURL() != DefaultServiceURL {
		t.Errorf("ServiceURL = %q, want %q", cfg.ServiceURL(), DefaultServiceURL)
	}
	if cfg.PollInterval() != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval(), DefaultPollInterval)
	}
	if cfg.RequestTimeout() != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout(), DefaultRequestTimeout)
	}
	if cfg.BatchStagger() != DefaultBatchStagger {
		t.Errorf("BatchStagger = %v, want %v", cfg.BatchStagger(), DefaultBatchStagger)
	}
	if cfg.APIToken() != "" {
		t.Errorf("APIToken = %q, want empty", cfg.APIToken())
	}
	if cfg.Headless() {
		t.Error("Headless = true, want false")
	}
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvServiceURL, "https://clips.example.com")
	t.Setenv(EnvPollInterval, "500ms")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvAPIToken, "secret-token")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port())
	}
	if cfg.ServiceURL() != "https://clips.example.com" {
		t.Errorf("ServiceURL = %q", cfg.ServiceURL())
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval())
	}
	if !cfg.Headless() {
		t.Error("Headless = false, want true")
	}
	if cfg.APIToken() != "secret-token" {
		t.Errorf("APIToken = %q", cfg.APIToken())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port range":    {EnvPort, "70000"},
		"port syntax":   {EnvPort, "abc"},
		"service url":   {EnvServiceURL, "ftp://nowhere"},
		"poll interval": {EnvPollInterval, "0s"},
		"timeout":       {EnvRequestTimeout, "-1s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := New(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvLogLevel+"=debug\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvLogLevel)

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvLogLevel); got != "debug" {
		t.Fatalf("%s = %q, want debug", EnvLogLevel, got)
	}
}
