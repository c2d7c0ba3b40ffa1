// Package config loads and validates application configuration from
// environment variables, optionally layered over a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for the API server.
// Values are populated by Load.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// AutoMigrate applies pending migrations at startup. Defaults to false.
	AutoMigrate bool

	// BusinessLocation is the time zone whose calendar decides "today" for
	// pickup-date rules. Set BUSINESS_TIMEZONE to an IANA name; defaults to UTC.
	BusinessLocation *time.Location

	// KafkaBrokers lists the brokers reservation events are published to.
	// Empty means events are relayed to the log instead.
	KafkaBrokers []string

	// KafkaTopic is the topic for reservation events. Defaults to "reservation-events".
	KafkaTopic string

	// NoShowSweepSchedule is a six-field cron spec (with seconds) for the
	// no-show sweep. Defaults to daily at 05:00 business time. Empty disables
	// the job.
	NoShowSweepSchedule string

	// OutboxRelaySchedule is a six-field cron spec for the outbox relay.
	// Empty disables the job.
	OutboxRelaySchedule string

	// OutboxBatchSize is the number of events the relay publishes per run.
	OutboxBatchSize int
}

// Load reads configuration and returns a Config. If CONFIG_FILE names a YAML
// file, its top-level keys (the same names as the environment variables)
// supply values; a non-empty environment variable always wins.
// Returns an error listing required variables that are missing or values that
// do not parse.
func Load() (Config, error) {
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	l := loader{file: file}

	cfg := Config{
		Port:                l.get("PORT", "8080"),
		DatabaseURL:         l.get("DATABASE_URL", ""),
		LogLevel:            l.get("LOG_LEVEL", "info"),
		CORSOrigins:         splitCSV(l.get("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes:        l.int64("MAX_BODY_BYTES", 1<<20),
		AutoMigrate:         l.bool("AUTO_MIGRATE", false),
		BusinessLocation:    l.location("BUSINESS_TIMEZONE", "UTC"),
		KafkaBrokers:        splitCSV(l.get("KAFKA_BROKERS", "")),
		KafkaTopic:          l.get("KAFKA_TOPIC", "reservation-events"),
		NoShowSweepSchedule: l.get("NO_SHOW_SWEEP_SCHEDULE", "0 0 5 * * *"),
		OutboxRelaySchedule: l.get("OUTBOX_RELAY_SCHEDULE", "*/5 * * * * *"),
		OutboxBatchSize:     int(l.int64("OUTBOX_BATCH_SIZE", 100)),
	}

	if cfg.DatabaseURL == "" {
		l.missing = append(l.missing, "DATABASE_URL")
	}
	if cfg.MaxBodyBytes <= 0 {
		l.invalid = append(l.invalid, "MAX_BODY_BYTES must be positive")
	}
	if cfg.OutboxBatchSize <= 0 {
		l.invalid = append(l.invalid, "OUTBOX_BATCH_SIZE must be positive")
	}

	if len(l.missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(l.missing, ", "))
	}
	if len(l.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(l.invalid, "; "))
	}

	return cfg, nil
}

// readFile parses a flat YAML map. An empty path yields an empty map.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return values, nil
}

// loader resolves keys from the environment, then the file, then a fallback,
// and collects parse failures so Load can report them all at once.
type loader struct {
	file    map[string]string
	missing []string
	invalid []string
}

// get returns the value for key, or fallback if neither the environment nor
// the file sets it.
func (l *loader) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := strings.TrimSpace(l.file[key]); v != "" {
		return v
	}
	return fallback
}

func (l *loader) int64(key string, fallback int64) int64 {
	raw := l.get(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		l.invalid = append(l.invalid, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return fallback
	}
	return n
}

func (l *loader) bool(key string, fallback bool) bool {
	raw := l.get(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		l.invalid = append(l.invalid, fmt.Sprintf("%s: %q is not a boolean", key, raw))
		return fallback
	}
	return b
}

func (l *loader) location(key, fallback string) *time.Location {
	name := l.get(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		l.invalid = append(l.invalid, fmt.Sprintf("%s: unknown time zone %q", key, name))
		return time.UTC
	}
	return loc
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
