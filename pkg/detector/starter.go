package detector

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/sink"
)

// ErrConfigExists is returned when the starter config path is taken.
var ErrConfigExists = errors.New("config file already exists")

// StarterConfig returns the default configuration with its output pointed
// at logFile's CSV sibling.
func StarterConfig(logFile string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	out, err := sink.DefaultOutputPath(logFile, cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	cfg.Output.Path = out
	return cfg, nil
}

// WriteStarterConfig writes a starter config for logFile to path, as TOML
// when path ends in .toml and YAML otherwise. Existing files are never
// overwritten.
func WriteStarterConfig(path, logFile string, result *DetectionResult) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s (will not overwrite)", ErrConfigExists, path)
	}
	if !result.HasMatch() {
		return errors.New("cannot generate config: no record boundary detected")
	}

	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	cfg, err := StarterConfig(absLogFile)
	if err != nil {
		return err
	}
	body, err := config.Encode(path, cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# walog configuration")
	fmt.Fprintln(&buf, "# Generated by: walog detect")
	fmt.Fprintf(&buf, "# Sampled: %s\n", absLogFile)
	fmt.Fprintf(&buf, "# Verdict: %s (%d of %d records match the full layout)\n",
		result.Verdict(), result.Strict(), result.BoundaryLines)
	if result.LeadingOrphans > 0 {
		fmt.Fprintf(&buf, "# %d line(s) precede the first record; orphan_lines decides their fate.\n",
			result.LeadingOrphans)
	}
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# Convert with: walog convert -c "+quoteArg(path)+" "+quoteArg(absLogFile))
	fmt.Fprintln(&buf)
	buf.Write(body)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t'\"") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}
