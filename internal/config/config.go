// Package config handles SDK configuration
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/match"
	"github.com/GriffinCanCode/eyes-go/internal/scale"
)

type Config struct {
	AppName          string
	MatchLevel       string
	MatchTimeoutMs   int
	ScaleMethod      string
	DevicePixelRatio float64 // 0 means ask the driver
	ForceFullPage    bool
	IgnoreCaret      bool
	LogLevel         string
	CaptureRetries   int // 0 disables retries
	RetakeIntervalMs int
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first without overriding set variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}
	return &Config{
		AppName:          getEnv("EYES_APP_NAME", "eyes-go"),
		MatchLevel:       getEnv("EYES_MATCH_LEVEL", "Strict"),
		MatchTimeoutMs:   getEnvInt("EYES_MATCH_TIMEOUT_MS", 2000),
		ScaleMethod:      getEnv("EYES_SCALE_METHOD", "speed"),
		DevicePixelRatio: getEnvFloat("EYES_DEVICE_PIXEL_RATIO", 0),
		ForceFullPage:    getEnvBool("EYES_FORCE_FULL_PAGE", false),
		IgnoreCaret:      getEnvBool("EYES_IGNORE_CARET", true),
		LogLevel:         getEnv("EYES_LOG_LEVEL", "info"),
		CaptureRetries:   getEnvInt("EYES_CAPTURE_RETRIES", 2),
		RetakeIntervalMs: getEnvInt("EYES_RETAKE_INTERVAL_MS", 500),
	}
}

// Validate checks values that are parsed further downstream.
func (c *Config) Validate() error {
	if _, err := match.Parse(c.MatchLevel); err != nil {
		return apperrors.Wrap(err, apperrors.ConfigInvalid, "invalid match level").WithMetadata("key", "EYES_MATCH_LEVEL")
	}
	if _, err := scale.ParseMethod(c.ScaleMethod); err != nil {
		return apperrors.Wrap(err, apperrors.ConfigInvalid, "invalid scale method").WithMetadata("key", "EYES_SCALE_METHOD")
	}
	if c.DevicePixelRatio < 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "device pixel ratio must not be negative, got %v", c.DevicePixelRatio).
			WithMetadata("key", "EYES_DEVICE_PIXEL_RATIO")
	}
	if c.CaptureRetries < 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "capture retries must not be negative, got %d", c.CaptureRetries).
			WithMetadata("key", "EYES_CAPTURE_RETRIES")
	}
	if c.MatchTimeoutMs < 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "match timeout must not be negative, got %d", c.MatchTimeoutMs).
			WithMetadata("key", "EYES_MATCH_TIMEOUT_MS")
	}
	return nil
}

// Level returns the configured match level, falling back to Strict.
func (c *Config) Level() match.Level {
	l, err := match.Parse(c.MatchLevel)
	if err != nil {
		return match.Strict
	}
	return l
}

// Method returns the configured scale method, falling back to Speed.
func (c *Config) Method() scale.Method {
	m, _ := scale.ParseMethod(c.ScaleMethod)
	return m
}

// SlogLevel maps LogLevel onto slog levels.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
