// Package config loads and validates application configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Workflow      WorkflowConfig      `yaml:"workflow"`
	Journal       JournalConfig       `yaml:"journal"`
	Faults        FaultsConfig        `yaml:"faults"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// WorkflowConfig identifies the change request to activate and tunes the
// recovery behaviour.
type WorkflowConfig struct {
	ESPInstance     string        `yaml:"esp_instance"`
	ChangeRequest   string        `yaml:"change_request"`
	RecoveryBackoff time.Duration `yaml:"recovery_backoff"`
}

// JournalConfig describes audit-trail persistence settings.
type JournalConfig struct {
	Driver          string        `yaml:"driver"`
	DSNEnv          string        `yaml:"dsn_env"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// FaultsConfig enables deterministic fault injection per collaborator
// call, so every recovery branch can be exercised without a live backend.
// Production deployments leave it zero.
type FaultsConfig struct {
	GetDevice       FaultConfig `yaml:"get_device"`
	CheckModule     FaultConfig `yaml:"check_module"`
	ImplementChange FaultConfig `yaml:"implement_change"`
	PreChecks       FaultConfig `yaml:"pre_checks"`
	Activation      FaultConfig `yaml:"activation"`
	CloseChange     FaultConfig `yaml:"close_change"`
	CancelChange    FaultConfig `yaml:"cancel_change"`
	UploadArtifacts FaultConfig `yaml:"upload_artifacts"`
	CreateIncident  FaultConfig `yaml:"create_incident"`
}

// FaultConfig makes a single collaborator call fail. When FailFirst is
// positive only the first FailFirst calls fail, which lets retry branches
// observe a failure followed by a success.
type FaultConfig struct {
	Enabled   bool `yaml:"enabled"`
	FailFirst int  `yaml:"fail_first"`
}

// ObservabilityConfig describes logging, tracing, and the admin listener.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Admin    AdminConfig   `yaml:"admin"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// AdminConfig describes the optional health/metrics listener.
type AdminConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Port        int    `yaml:"port"`
	MetricsPath string `yaml:"metrics_path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Workflow: WorkflowConfig{
			RecoveryBackoff: 3 * time.Second,
		},
		Journal: JournalConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Admin: AdminConfig{
				Port:        9091,
				MetricsPath: "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Workflow.ESPInstance == "" {
		errs = append(errs, "workflow.esp_instance is required")
	}
	if c.Workflow.ChangeRequest == "" {
		errs = append(errs, "workflow.change_request is required")
	}
	if c.Workflow.RecoveryBackoff <= 0 {
		errs = append(errs, "workflow.recovery_backoff must be positive")
	}
	switch c.Journal.Driver {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("journal.driver %q is not supported (memory, postgres)", c.Journal.Driver))
	}
	if c.Observability.Admin.Enabled && (c.Observability.Admin.Port < 1 || c.Observability.Admin.Port > 65535) {
		errs = append(errs, "observability.admin.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads ACTIVATION_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACTIVATION_ESP_INSTANCE"); v != "" {
		cfg.Workflow.ESPInstance = v
	}
	if v := os.Getenv("ACTIVATION_CHANGE_REQUEST"); v != "" {
		cfg.Workflow.ChangeRequest = v
	}
	if v := os.Getenv("ACTIVATION_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ACTIVATION_JOURNAL_DRIVER"); v != "" {
		cfg.Journal.Driver = v
	}

	// Fault flags mirror the legacy ERROR_ON_* demo switches.
	overrideFault(&cfg.Faults.GetDevice, "ACTIVATION_FAULT_GET_DEVICE")
	overrideFault(&cfg.Faults.CheckModule, "ACTIVATION_FAULT_CHECK_MODULE")
	overrideFault(&cfg.Faults.ImplementChange, "ACTIVATION_FAULT_IMPLEMENT_CHANGE")
	overrideFault(&cfg.Faults.PreChecks, "ACTIVATION_FAULT_PRE_CHECKS")
	overrideFault(&cfg.Faults.Activation, "ACTIVATION_FAULT_ACTIVATION")
	overrideFault(&cfg.Faults.CloseChange, "ACTIVATION_FAULT_CLOSE_CHANGE")
	overrideFault(&cfg.Faults.CancelChange, "ACTIVATION_FAULT_CANCEL_CHANGE")
	overrideFault(&cfg.Faults.UploadArtifacts, "ACTIVATION_FAULT_UPLOAD_ARTIFACTS")
	overrideFault(&cfg.Faults.CreateIncident, "ACTIVATION_FAULT_CREATE_INCIDENT")
}

func overrideFault(fault *FaultConfig, envVar string) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	if enabled, err := strconv.ParseBool(v); err == nil {
		fault.Enabled = enabled
	}
}
