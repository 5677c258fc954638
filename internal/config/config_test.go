package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/match"
	"github.com/GriffinCanCode/eyes-go/internal/scale"
)

var envVars = []string{
	"EYES_APP_NAME", "EYES_MATCH_LEVEL", "EYES_MATCH_TIMEOUT_MS", "EYES_SCALE_METHOD",
	"EYES_DEVICE_PIXEL_RATIO", "EYES_FORCE_FULL_PAGE", "EYES_IGNORE_CARET", "EYES_LOG_LEVEL",
	"EYES_CAPTURE_RETRIES", "EYES_RETAKE_INTERVAL_MS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.AppName != "eyes-go" {
		t.Errorf("AppName = %q, want %q", cfg.AppName, "eyes-go")
	}
	if cfg.MatchLevel != "Strict" {
		t.Errorf("MatchLevel = %q, want %q", cfg.MatchLevel, "Strict")
	}
	if cfg.MatchTimeoutMs != 2000 {
		t.Errorf("MatchTimeoutMs = %d, want %d", cfg.MatchTimeoutMs, 2000)
	}
	if cfg.ScaleMethod != "speed" {
		t.Errorf("ScaleMethod = %q, want %q", cfg.ScaleMethod, "speed")
	}
	if cfg.DevicePixelRatio != 0 {
		t.Errorf("DevicePixelRatio = %f, want 0", cfg.DevicePixelRatio)
	}
	if cfg.ForceFullPage {
		t.Error("ForceFullPage should default to false")
	}
	if !cfg.IgnoreCaret {
		t.Error("IgnoreCaret should default to true")
	}
	if cfg.CaptureRetries != 2 {
		t.Errorf("CaptureRetries = %d, want 2", cfg.CaptureRetries)
	}
	if cfg.RetakeIntervalMs != 500 {
		t.Errorf("RetakeIntervalMs = %d, want 500", cfg.RetakeIntervalMs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("EYES_APP_NAME", "checkout")
	t.Setenv("EYES_MATCH_LEVEL", "layout")
	t.Setenv("EYES_MATCH_TIMEOUT_MS", "5000")
	t.Setenv("EYES_SCALE_METHOD", "ultra_quality")
	t.Setenv("EYES_DEVICE_PIXEL_RATIO", "2.5")
	t.Setenv("EYES_FORCE_FULL_PAGE", "1")
	t.Setenv("EYES_IGNORE_CARET", "false")
	t.Setenv("EYES_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.AppName != "checkout" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
	if cfg.Level() != match.Layout {
		t.Errorf("Level() = %v, want Layout", cfg.Level())
	}
	if cfg.MatchTimeoutMs != 5000 {
		t.Errorf("MatchTimeoutMs = %d, want 5000", cfg.MatchTimeoutMs)
	}
	if cfg.Method() != scale.UltraQuality {
		t.Errorf("Method() = %v, want ultra-quality", cfg.Method())
	}
	if cfg.DevicePixelRatio != 2.5 {
		t.Errorf("DevicePixelRatio = %f, want 2.5", cfg.DevicePixelRatio)
	}
	if !cfg.ForceFullPage {
		t.Error("ForceFullPage should be true")
	}
	if cfg.IgnoreCaret {
		t.Error("IgnoreCaret should be false")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir, _ := os.Getwd()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("EYES_APP_NAME=from-dotenv\nEYES_MATCH_LEVEL=Exact\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("EYES_MATCH_LEVEL", "Content")
	t.Cleanup(func() {
		os.Unsetenv("EYES_APP_NAME")
	})

	cfg := Load()

	if cfg.AppName != "from-dotenv" {
		t.Errorf("AppName = %q, want %q", cfg.AppName, "from-dotenv")
	}
	if cfg.MatchLevel != "Content" {
		t.Errorf("MatchLevel = %q, set variables should win over .env", cfg.MatchLevel)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{MatchLevel: "Strict", ScaleMethod: "speed"}

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"bad match level", func(c *Config) { c.MatchLevel = "fuzzy" }, "EYES_MATCH_LEVEL"},
		{"bad scale method", func(c *Config) { c.ScaleMethod = "bicubic" }, "EYES_SCALE_METHOD"},
		{"negative dpr", func(c *Config) { c.DevicePixelRatio = -1 }, "EYES_DEVICE_PIXEL_RATIO"},
		{"negative timeout", func(c *Config) { c.MatchTimeoutMs = -5 }, "EYES_MATCH_TIMEOUT_MS"},
		{"negative retries", func(c *Config) { c.CaptureRetries = -1 }, "EYES_CAPTURE_RETRIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !apperrors.IsCode(err, apperrors.ConfigInvalid) {
				t.Fatalf("Validate() = %v, want ConfigInvalid", err)
			}
			if got := err.(*apperrors.AppError).Metadata["key"]; got != tt.key {
				t.Errorf("key = %q, want %q", got, tt.key)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (&Config{LogLevel: tt.in}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFallback(t *testing.T) {
	if got := (&Config{MatchLevel: "nope"}).Level(); got != match.Strict {
		t.Errorf("Level() = %v, want Strict", got)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "hello")
	if v := getEnv("TEST_STRING", "default"); v != "hello" {
		t.Errorf("getEnv = %q, want %q", v, "hello")
	}
	if v := getEnv("NONEXISTENT", "default"); v != "default" {
		t.Errorf("getEnv = %q, want %q", v, "default")
	}

	t.Setenv("TEST_INT", "42")
	if v := getEnvInt("TEST_INT", 0); v != 42 {
		t.Errorf("getEnvInt = %d, want %d", v, 42)
	}
	t.Setenv("TEST_INT_INVALID", "not-a-number")
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}

	t.Setenv("TEST_FLOAT", "3.14")
	if v := getEnvFloat("TEST_FLOAT", 0.0); v != 3.14 {
		t.Errorf("getEnvFloat = %f, want %f", v, 3.14)
	}
	if v := getEnvFloat("NONEXISTENT", 2.71); v != 2.71 {
		t.Errorf("getEnvFloat = %f, want %f", v, 2.71)
	}

	t.Setenv("TEST_BOOL_TRUE", "true")
	t.Setenv("TEST_BOOL_ONE", "1")
	t.Setenv("TEST_BOOL_FALSE", "false")
	if !getEnvBool("TEST_BOOL_TRUE", false) {
		t.Error("getEnvBool should return true for 'true'")
	}
	if !getEnvBool("TEST_BOOL_ONE", false) {
		t.Error("getEnvBool should return true for '1'")
	}
	if getEnvBool("TEST_BOOL_FALSE", true) {
		t.Error("getEnvBool should return false for 'false'")
	}
	if !getEnvBool("NONEXISTENT", true) {
		t.Error("getEnvBool should return default true")
	}
}
