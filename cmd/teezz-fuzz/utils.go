package main

import (
	"fmt"
	"os"

	"github.com/hexhive/teezz-fuzz/pkg/config"
	"github.com/hexhive/teezz-fuzz/pkg/reporting"
)

// loadConfig loads the configuration from file, auto-generating a default
// one alongside it if none exists yet.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = "fuzz.cfg"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("config file not found, writing defaults to %s\n", path)
		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *reporting.Logger {
	level := reporting.LogLevelInfo
	if verbose {
		level = reporting.LogLevelDebug
	}
	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  level,
		Format: reporting.LogFormat(cfg.Reporting.LogFormat),
		Output: os.Stdout,
	})
}
