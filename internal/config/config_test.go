package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestDefaults verifies all default values are applied when nothing is set.
func TestDefaults(t *testing.T) {
	cfg, err := Load(writeEnvFile(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Backend.BaseURL != "http://localhost:5000" {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, "http://localhost:5000")
	}
	if cfg.Backend.Timeout != 0 {
		t.Errorf("Backend.Timeout = %v, want 0", cfg.Backend.Timeout)
	}
	if cfg.Backend.UniformFallback {
		t.Error("Backend.UniformFallback = true, want false")
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
	if cfg.Visits.DatabasePath != "portfolio.db" {
		t.Errorf("Visits.DatabasePath = %q", cfg.Visits.DatabasePath)
	}
	if cfg.Visits.Retention != 365*24*time.Hour {
		t.Errorf("Visits.Retention = %v", cfg.Visits.Retention)
	}
	if cfg.Admin.Username != "admin" {
		t.Errorf("Admin.Username = %q", cfg.Admin.Username)
	}
	if cfg.NatsSubject != "portfolio.contact" {
		t.Errorf("NatsSubject = %q", cfg.NatsSubject)
	}
}

// TestEnvFile verifies values are read from the .env file.
func TestEnvFile(t *testing.T) {
	path := writeEnvFile(t, "API_BASE_URL=https://api.example.com\nBACKEND_TIMEOUT=3s\n")
	t.Setenv("API_BASE_URL", "")
	os.Unsetenv("API_BASE_URL")
	t.Setenv("BACKEND_TIMEOUT", "")
	os.Unsetenv("BACKEND_TIMEOUT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Backend.Timeout = %v", cfg.Backend.Timeout)
	}
}

// TestEnvOverride verifies that environment variables override .env values.
func TestEnvOverride(t *testing.T) {
	path := writeEnvFile(t, "PORT=9000\n")
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := writeEnvFile(t, "")

	t.Setenv("PORT", "not-an-int")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v, want parse env error", err)
	}

	t.Setenv("PORT", "70000")
	if _, err := Load(path); err == nil {
		t.Fatal("expected out-of-range port error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for a missing explicit env file")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
