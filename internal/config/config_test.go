package config

import (
	"testing"
	"time"
)

func TestLoad_valid(t *testing.T) {
	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workflow.ESPInstance != "cisco" {
		t.Errorf("Workflow.ESPInstance = %q, want %q", cfg.Workflow.ESPInstance, "cisco")
	}
	if cfg.Workflow.ChangeRequest != "CHG1234" {
		t.Errorf("Workflow.ChangeRequest = %q, want %q", cfg.Workflow.ChangeRequest, "CHG1234")
	}
	if cfg.Workflow.RecoveryBackoff != 5*time.Second {
		t.Errorf("Workflow.RecoveryBackoff = %v, want 5s", cfg.Workflow.RecoveryBackoff)
	}
	if cfg.Journal.Driver != "postgres" {
		t.Errorf("Journal.Driver = %q, want postgres", cfg.Journal.Driver)
	}
	if cfg.Journal.DSNEnv != "ACTIVATION_JOURNAL_DSN" {
		t.Errorf("Journal.DSNEnv = %q", cfg.Journal.DSNEnv)
	}
	if cfg.Journal.MaxOpenConns != 20 {
		t.Errorf("Journal.MaxOpenConns = %d, want 20", cfg.Journal.MaxOpenConns)
	}
	if !cfg.Faults.Activation.Enabled {
		t.Error("Faults.Activation.Enabled = false, want true")
	}
	if cfg.Faults.CloseChange.FailFirst != 1 {
		t.Errorf("Faults.CloseChange.FailFirst = %d, want 1", cfg.Faults.CloseChange.FailFirst)
	}
	if cfg.Faults.GetDevice.Enabled {
		t.Error("Faults.GetDevice.Enabled = true, want false")
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("Observability.LogLevel = %q, want debug", cfg.Observability.LogLevel)
	}
	if cfg.Observability.Tracing.Exporter != "stdout" {
		t.Errorf("Tracing.Exporter = %q, want stdout", cfg.Observability.Tracing.Exporter)
	}
	if cfg.Observability.Admin.Port != 9100 {
		t.Errorf("Admin.Port = %d, want 9100", cfg.Observability.Admin.Port)
	}
	// Unset fields keep their defaults.
	if cfg.Observability.Admin.MetricsPath != "/metrics" {
		t.Errorf("Admin.MetricsPath = %q, want /metrics", cfg.Observability.Admin.MetricsPath)
	}
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("Load() with missing file should return error")
	}
}

func TestLoad_missing_workflow(t *testing.T) {
	_, err := Load("testdata/missing_workflow.yaml")
	if err == nil {
		t.Fatal("Load() without workflow identity should return error")
	}
}

func TestLoad_bad_journal_driver(t *testing.T) {
	_, err := Load("testdata/bad_driver.yaml")
	if err == nil {
		t.Fatal("Load() with unsupported journal driver should return error")
	}
}

func TestLoad_env_overrides(t *testing.T) {
	t.Setenv("ACTIVATION_CHANGE_REQUEST", "CHG9999")
	t.Setenv("ACTIVATION_LOG_LEVEL", "warn")
	t.Setenv("ACTIVATION_FAULT_GET_DEVICE", "true")
	t.Setenv("ACTIVATION_FAULT_ACTIVATION", "false")

	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workflow.ChangeRequest != "CHG9999" {
		t.Errorf("Workflow.ChangeRequest = %q, want CHG9999", cfg.Workflow.ChangeRequest)
	}
	if cfg.Observability.LogLevel != "warn" {
		t.Errorf("Observability.LogLevel = %q, want warn", cfg.Observability.LogLevel)
	}
	if !cfg.Faults.GetDevice.Enabled {
		t.Error("Faults.GetDevice.Enabled = false, want true (env override)")
	}
	if cfg.Faults.Activation.Enabled {
		t.Error("Faults.Activation.Enabled = true, want false (env override)")
	}
}

func TestLoad_env_override_invalid_bool(t *testing.T) {
	t.Setenv("ACTIVATION_FAULT_CHECK_MODULE", "not-a-bool")

	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Faults.CheckModule.Enabled {
		t.Error("invalid bool env value should be ignored")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Workflow.RecoveryBackoff != 3*time.Second {
		t.Errorf("default RecoveryBackoff = %v, want 3s", cfg.Workflow.RecoveryBackoff)
	}
	if cfg.Journal.Driver != "memory" {
		t.Errorf("default Journal.Driver = %q, want memory", cfg.Journal.Driver)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("default LogLevel = %q, want info", cfg.Observability.LogLevel)
	}
	if cfg.Observability.Tracing.SamplingRate != 0.1 {
		t.Errorf("default SamplingRate = %v, want 0.1", cfg.Observability.Tracing.SamplingRate)
	}
}

func TestValidate_backoff(t *testing.T) {
	cfg := Defaults()
	cfg.Workflow.ESPInstance = "cisco"
	cfg.Workflow.ChangeRequest = "CHG1"
	cfg.Workflow.RecoveryBackoff = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with zero backoff should return error")
	}
}

func TestValidate_admin_port(t *testing.T) {
	cfg := Defaults()
	cfg.Workflow.ESPInstance = "cisco"
	cfg.Workflow.ChangeRequest = "CHG1"
	cfg.Observability.Admin.Enabled = true
	cfg.Observability.Admin.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with invalid admin port should return error")
	}
}
