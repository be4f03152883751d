package app

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Options configures an App.
type Options struct {
	// Name labels the application in logs.
	Name string `yaml:"name"`
	// Development enables development-mode diagnostics, including verbose
	// dependency graph validation logging.
	Development bool `yaml:"development"`
	// LogLevel is the hclog level name ("trace", "debug", "info", "warn",
	// "error"). Empty means "info".
	LogLevel string `yaml:"log_level"`
}

// DefaultOptions returns the options used when no configuration is supplied.
func DefaultOptions() Options {
	return Options{
		Name:     "axon",
		LogLevel: "info",
	}
}

// LoadOptions reads options from a YAML file, filling unset fields with
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("app: reading options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("app: parsing options: %w", err)
	}
	if opts.Name == "" {
		opts.Name = "axon"
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}
	return opts, nil
}

// logger builds the application logger from the options.
func (o Options) logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  o.Name,
		Level: hclog.LevelFromString(o.LogLevel),
	})
}
