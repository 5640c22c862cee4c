// Package config loads process configuration from the environment.
// A .env file in the working directory, if present, is applied first and never
// overrides variables that are already set.
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

// Common holds settings shared by every binary.
type Common struct {
	AppEnv   string
	LogLevel slog.Level
}

// MQTT holds broker settings for the optional MQTT transport.
type MQTT struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
	Username string
	Password string
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func loadCommon() (Common, error) {
	appEnv := envString("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Common{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return Common{}, err
	}

	return Common{AppEnv: appEnv, LogLevel: level}, nil
}

func loadMQTT(defaultClientID string) (MQTT, error) {
	port, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return MQTT{}, err
	}
	if port <= 0 || port > 65535 {
		return MQTT{}, fmt.Errorf("MQTT_PORT out of range: %d", port)
	}
	return MQTT{
		Broker:   envString("MQTT_BROKER", "localhost"),
		Port:     port,
		ClientID: envString("MQTT_CLIENT_ID", defaultClientID),
		Topic:    envString("MQTT_TOPIC", "house/telemetry"),
		Username: envString("MQTT_USERNAME", ""),
		Password: os.Getenv("MQTT_PASSWORD"),
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envInt64(key string, def int64) (int64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}
