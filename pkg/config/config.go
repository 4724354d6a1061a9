package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/walog/pkg/parser"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads and validates a configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults (with
// environment overrides) when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Encode renders cfg in the format implied by path's extension, the
// inverse of Load's decoding.
func Encode(path string, cfg *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(cfg)
	default:
		return yaml.Marshal(cfg)
	}
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate checks a configuration for errors and fills in defaults for
// zero values.
func Validate(cfg *Config) error {
	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if err := validateDatabase(&cfg.Database, cfg.Output.Format); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := validateProcessing(&cfg.Processing); err != nil {
		return fmt.Errorf("processing: %w", err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateOutput(out *OutputConfig) error {
	if out.Format == "" {
		out.Format = DefaultFormat
	}
	switch out.Format {
	case FormatCSV, FormatJSONL, FormatSQLite, FormatPostgres:
	default:
		return fmt.Errorf("invalid format %q (must be csv, jsonl, sqlite, or postgres)", out.Format)
	}

	if out.Delimiter == "" {
		out.Delimiter = DefaultDelimiter
	}
	if utf8.RuneCountInString(out.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", out.Delimiter)
	}
	switch out.Delimiter {
	case `"`, "\r", "\n":
		return fmt.Errorf("delimiter %q is not allowed", out.Delimiter)
	}

	return nil
}

func validateDatabase(db *DatabaseConfig, format string) error {
	if db.Table == "" {
		db.Table = DefaultTable
	}
	if !tableNamePattern.MatchString(db.Table) {
		return fmt.Errorf("invalid table name %q", db.Table)
	}
	if format == FormatPostgres && db.DSN == "" {
		return errors.New("dsn is required for postgres output")
	}
	return nil
}

func validateProcessing(p *ProcessingConfig) error {
	if p.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be >= 0, got %d", p.ProgressInterval)
	}
	if p.ProgressInterval == 0 {
		p.ProgressInterval = DefaultProgressInterval
	}

	if p.MaxLines < 0 {
		return fmt.Errorf("max_lines must be >= 0, got %d", p.MaxLines)
	}

	policy, err := parser.ParseOrphanPolicy(p.OrphanLines)
	if err != nil {
		return fmt.Errorf("orphan_lines: %w", err)
	}
	p.OrphanLines = string(policy)

	return nil
}

func validateLogging(l *LoggingConfig) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
		l.Level = strings.ToLower(l.Level)
	default:
		return fmt.Errorf("invalid level %q", l.Level)
	}

	if l.Format == "" {
		l.Format = DefaultLogFormat
	}
	if l.Format != "console" && l.Format != "json" {
		return fmt.Errorf("invalid format %q (must be console or json)", l.Format)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerOnDegraded, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be always, on_degraded, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = Duration(DefaultWebhookTimeout)
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}
