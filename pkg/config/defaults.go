package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values for configuration.
const (
	DefaultFormat           = FormatCSV
	DefaultDelimiter        = ","
	DefaultTable            = "records"
	DefaultProgressInterval = 1000
	DefaultOrphanLines      = "placeholder"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultWebhookTimeout   = 10 * time.Second
)

// Environment variable names.
const (
	EnvOutputFormat     = "WALOG_OUTPUT_FORMAT"
	EnvDatabaseDSN      = "WALOG_DATABASE_DSN"
	EnvLogLevel         = "WALOG_LOG_LEVEL"
	EnvProgressInterval = "WALOG_PROGRESS_INTERVAL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:    DefaultFormat,
			Delimiter: DefaultDelimiter,
			CRLF:      true,
		},
		Database: DatabaseConfig{
			Table: DefaultTable,
		},
		Processing: ProcessingConfig{
			ProgressInterval: DefaultProgressInterval,
			OrphanLines:      DefaultOrphanLines,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if format := os.Getenv(EnvOutputFormat); format != "" {
		c.Output.Format = format
	}
	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		c.Database.DSN = dsn
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv(EnvProgressInterval); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProgressInterval, err)
		}
		c.Processing.ProgressInterval = n
	}
	return nil
}
