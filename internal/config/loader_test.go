package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// clearFieldmarkEnvVars clears all FIELDMARK_ environment variables.
func clearFieldmarkEnvVars() {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) > 0 {
				_ = os.Unsetenv(parts[0])
			}
		}
	}
	viper.Reset()
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v == nil {
		t.Error("Loader viper instance is nil")
	}
}

func TestLoadWithNoConfigFile(t *testing.T) {
	clearFieldmarkEnvVars()

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Errorf("Load() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	// Should get default values
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Matcher.Extractor.UseAbsoluteValue {
		t.Error("Expected use_absolute_value to default to true")
	}
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	clearFieldmarkEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "fieldmark.yaml")

	yamlContent := `
log_level: debug
verbose: true
matcher:
  min_confidence: 0.5
  grouper:
    row_tolerance: 0.4
  normalize:
    use_absolute_value: false
mappings:
  fields:
    - base_label: "平均速度"
      field_key: "avg_speed"
server:
  host: 0.0.0.0
  port: 9090
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Matcher.MinConfidence != 0.5 {
		t.Errorf("Expected min confidence 0.5, got %f", cfg.Matcher.MinConfidence)
	}
	if cfg.Matcher.Grouper.RowTolerance != 0.4 {
		t.Errorf("Expected row tolerance 0.4, got %f", cfg.Matcher.Grouper.RowTolerance)
	}
	if cfg.Matcher.Extractor.UseAbsoluteValue {
		t.Error("Expected use_absolute_value to be false")
	}
	if len(cfg.Mappings.Fields) != 1 || cfg.Mappings.Fields[0].FieldKey != "avg_speed" {
		t.Errorf("Expected one inline mapping rule, got %+v", cfg.Mappings.Fields)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("Unexpected server config: %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
}

func TestLoadWithMissingFile(t *testing.T) {
	clearFieldmarkEnvVars()

	loader := NewLoader()
	_, err := loader.LoadWithFile("/nonexistent/fieldmark.yaml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadWithInvalidYAML(t *testing.T) {
	clearFieldmarkEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "fieldmark.yaml")
	if err := os.WriteFile(configFile, []byte("log_level: [unclosed"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearFieldmarkEnvVars()
	t.Setenv("FIELDMARK_LOG_LEVEL", "warn")
	t.Setenv("FIELDMARK_SERVER_PORT", "9999")

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn' from env, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env, got %d", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearFieldmarkEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "fieldmark.yaml")
	if err := os.WriteFile(configFile, []byte("log_level: loud\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	if err == nil {
		t.Error("Expected validation error for invalid log level")
	}
}

func TestGetConfigFileUsed(t *testing.T) {
	clearFieldmarkEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "fieldmark.yaml")
	if err := os.WriteFile(configFile, []byte("log_level: info\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoader()
	if _, err := loader.LoadWithFile(configFile); err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	if used := loader.GetConfigFileUsed(); used != configFile {
		t.Errorf("Expected config file %s, got %s", configFile, used)
	}
}
