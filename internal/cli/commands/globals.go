package commands

import (
	"fmt"

	"github.com/joho/godotenv"
)

// GlobalOptions holds the root command's persistent flags.
type GlobalOptions struct {
	LogLevel  string
	LogFormat string
	EnvFile   string
}

// Globals is bound to the root command's persistent flags. Empty log
// settings defer to the configuration file.
var Globals = &GlobalOptions{}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// before configuration is read. Variables already set are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
