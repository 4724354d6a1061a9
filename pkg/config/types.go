// Package config provides configuration loading and validation for walog.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	Output     OutputConfig     `yaml:"output" toml:"output"`
	Database   DatabaseConfig   `yaml:"database" toml:"database"`
	Processing ProcessingConfig `yaml:"processing" toml:"processing"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" toml:"metrics"`
	Webhooks   []WebhookConfig  `yaml:"webhooks,omitempty" toml:"webhooks,omitempty"`
}

// Output formats.
const (
	FormatCSV      = "csv"
	FormatJSONL    = "jsonl"
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
)

// OutputConfig controls where and how records are written.
type OutputConfig struct {
	// Format is one of csv, jsonl, sqlite or postgres.
	Format string `yaml:"format" toml:"format"`

	// Path overrides the output file. Empty means the input's sibling with
	// the format's extension.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`

	// Delimiter is the CSV field separator (a single character).
	Delimiter string `yaml:"delimiter" toml:"delimiter"`

	// CRLF ends CSV rows with \r\n, as spreadsheet tools expect.
	CRLF bool `yaml:"crlf" toml:"crlf"`
}

// DatabaseConfig configures the SQL sinks.
type DatabaseConfig struct {
	// DSN is the postgres connection string. SQLite uses the output path.
	DSN string `yaml:"dsn,omitempty" toml:"dsn,omitempty"`

	// Table receives one row per record.
	Table string `yaml:"table" toml:"table"`
}

// ProcessingConfig tunes the conversion loop.
type ProcessingConfig struct {
	// ProgressInterval is the number of lines between progress messages.
	ProgressInterval int `yaml:"progress_interval" toml:"progress_interval"`

	// OrphanLines is placeholder or skip.
	OrphanLines string `yaml:"orphan_lines" toml:"orphan_lines"`

	// MaxLines stops reading after this many lines. Zero reads everything.
	MaxLines int `yaml:"max_lines,omitempty" toml:"max_lines,omitempty"`
}

// LoggingConfig configures diagnostic output.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // console or json
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile, when set, receives run counters in the Prometheus text format.
	Textfile string `yaml:"textfile,omitempty" toml:"textfile,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every conversion (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerOnDegraded fires only when orphan or malformed lines were seen.
	WebhookTriggerOnDegraded WebhookTrigger = "on_degraded"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending conversion reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "always" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("10s") in
// both YAML and TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
