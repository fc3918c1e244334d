// Package config loads and merges the fuzzer's YAML configuration, the
// way the teacher's own config package does: typed sub-structs, a
// DefaultConfig, os.ExpandEnv expansion, and an environment-variable
// override on top of the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the merged fuzzer configuration (spec.md §6.3 fuzz.cfg).
type Config struct {
	Target     TargetConfig     `yaml:"target"`
	Device     DeviceConfig     `yaml:"device"`
	Executor   ExecutorConfig   `yaml:"executor"`
	Campaign   CampaignConfig   `yaml:"campaign"`
	Recovery   RecoveryConfig   `yaml:"recovery"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Reporting  ReportingConfig  `yaml:"reporting"`
}

// TargetConfig selects the TEE client-API variant under test.
type TargetConfig struct {
	// Variant is one of "triangle", "optee", "qsee" (call.Variant).
	Variant string `yaml:"variant"`
}

// DeviceConfig describes how the fuzzer reaches the device under test.
type DeviceConfig struct {
	// Transport is "docker" (container stand-in) or "adb" (physical device).
	Transport string `yaml:"transport"`
	// ContainerID / Serial name the concrete device under the chosen transport.
	ContainerID string `yaml:"container_id,omitempty"`
	Serial      string `yaml:"serial,omitempty"`
	// Name is a human label used in campaign directory layout
	// (<out>/<tee>/<device>/...).
	Name string `yaml:"name"`
}

// ExecutorConfig addresses the on-device executor's control port
// (spec.md §6.1).
type ExecutorConfig struct {
	Addr         string            `yaml:"addr"`
	ReadTimeout  time.Duration     `yaml:"read_timeout"`
	SessionUUID  string            `yaml:"session_uuid,omitempty"`
	SessionExtra map[string]string `yaml:"session_extra,omitempty"`
}

// CampaignConfig controls the fuzz loop and on-disk campaign layout.
type CampaignConfig struct {
	OutDir              string        `yaml:"out_dir"`
	CorpusDir           string        `yaml:"corpus_dir"`
	MaxDuration         time.Duration `yaml:"max_duration"`
	MutationDeleteProb  float64       `yaml:"mutation_delete_prob"`
	ConsecutiveTimeouts int           `yaml:"consecutive_timeouts"`
	MaxRunCount         int           `yaml:"max_run_count"`
	RebootRetries       int           `yaml:"reboot_retries"`
	Seed                int64         `yaml:"seed"`
}

// RecoveryConfig controls the format-recovery pipeline (spec.md §4.2).
type RecoveryConfig struct {
	Window           int  `yaml:"window"`
	StageFourWorkers int  `yaml:"stage_four_workers"`
}

// PrometheusConfig exposes campaign counters for scraping.
type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ReportingConfig contains report persistence settings.
type ReportingConfig struct {
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
	OutputDir string   `yaml:"output_dir"`
	KeepLastN int      `yaml:"keep_last_n"`
	Formats   []string `yaml:"formats"`
}

// DefaultConfig returns the fuzzer's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Variant: "triangle",
		},
		Device: DeviceConfig{
			Transport: "docker",
			Name:      "device0",
		},
		Executor: ExecutorConfig{
			Addr:        "127.0.0.1:4242",
			ReadTimeout: 10 * time.Second,
		},
		Campaign: CampaignConfig{
			OutDir:              "./out",
			CorpusDir:           "./corpus",
			MaxDuration:         0,
			MutationDeleteProb:  0.1,
			ConsecutiveTimeouts: 5,
			MaxRunCount:         500,
			RebootRetries:       3,
		},
		Recovery: RecoveryConfig{
			Window:           16,
			StageFourWorkers: 4,
		},
		Prometheus: PrometheusConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Reporting: ReportingConfig{
			LogLevel:  "info",
			LogFormat: "text",
			OutputDir: "./reports",
			KeepLastN: 50,
			Formats:   []string{"json", "text"},
		},
	}
}

// Load reads path (default "fuzz.cfg" if empty), expanding environment
// variables before YAML-unmarshaling onto a DefaultConfig base. Missing
// files yield the defaults unmodified. TEEZZ_EXECUTOR_ADDR, if set,
// overrides the executor address regardless of the file's contents.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "fuzz.cfg"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	addrEnv, addrEnvSet := os.LookupEnv("TEEZZ_EXECUTOR_ADDR")

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if addrEnvSet {
		cfg.Executor.Addr = addrEnv
	}

	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for required fields and sane ranges.
func (c *Config) Validate() error {
	switch c.Target.Variant {
	case "triangle", "optee", "qsee":
	default:
		return fmt.Errorf("target.variant must be one of triangle, optee, qsee, got %q", c.Target.Variant)
	}

	switch c.Device.Transport {
	case "docker", "adb":
	default:
		return fmt.Errorf("device.transport must be docker or adb, got %q", c.Device.Transport)
	}

	if c.Executor.Addr == "" {
		return fmt.Errorf("executor.addr is required")
	}

	if c.Campaign.OutDir == "" {
		return fmt.Errorf("campaign.out_dir is required")
	}

	if c.Campaign.MutationDeleteProb < 0 || c.Campaign.MutationDeleteProb > 1 {
		return fmt.Errorf("campaign.mutation_delete_prob must be in [0,1]")
	}

	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	return nil
}
