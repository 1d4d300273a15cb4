package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"gopkg.in/yaml.v3"
)

const (
	// Script Defaults
	DefaultCPUUsageTargetPercent    = 15
	DefaultMemoryUsageTargetPercent = 15
	DefaultExecutionIntervalMinutes = 60
	DefaultThroughputTestEnabled    = true
	DefaultThroughputTimeoutSeconds = 120
	DefaultWorkerJoinTimeoutSeconds = 15

	// Log Defaults
	DefaultLogFilename    = "neveridle.log"
	DefaultLogLevel       = "INFO"
	DefaultLogFormat      = "console"
	DefaultLogMaxMB       = 5
	DefaultLogBackupCount = 1

	// Notification Defaults
	DefaultNotificationTimeoutSeconds = 20

	// maxConfigFileSize guards against pointing -config at something that is not a config file
	maxConfigFileSize = 1024 * 1024

	// SourceDefaults is reported as the configuration source when no file was used
	SourceDefaults = "built-in defaults"
)

// Config is the effective configuration of the process. It is loaded once at
// startup and handed to the components that need it; nothing mutates it afterwards.
type Config struct {
	ScriptSettings       ScriptConfig       `json:"script_settings" yaml:"script_settings"`
	LoggingSettings      LogConfig          `json:"logging_settings" yaml:"logging_settings"`
	SchedulerSettings    SchedulerConfig    `json:"scheduler_settings" yaml:"scheduler_settings"`
	NotificationSettings NotificationConfig `json:"notification_settings" yaml:"notification_settings"`

	// Source is the file the configuration was read from, or SourceDefaults.
	Source string `json:"-" yaml:"-"`
}

// NewDefaultConfig returns the built-in configuration
func NewDefaultConfig() *Config {
	return &Config{
		ScriptSettings:       NewDefaultScriptConfig(),
		LoggingSettings:      NewDefaultLogConfig(),
		SchedulerSettings:    NewDefaultSchedulerConfig(),
		NotificationSettings: NewDefaultNotificationConfig(),
		Source:               SourceDefaults,
	}
}

// CPUTargetFraction returns the CPU target as a fraction in [0,1]
func (c *Config) CPUTargetFraction() float64 {
	return float64(c.ScriptSettings.CPUUsageTargetPercent) / 100
}

// MemoryTargetFraction returns the memory target as a fraction in [0,1]
func (c *Config) MemoryTargetFraction() float64 {
	return float64(c.ScriptSettings.MemoryUsageTargetPercent) / 100
}

// Interval returns the pause between two cycles
func (c *Config) Interval() time.Duration {
	return time.Duration(c.ScriptSettings.ExecutionIntervalMinutes) * time.Minute
}

// WorkerJoinTimeout returns the bounded wait for each CPU worker
func (c *Config) WorkerJoinTimeout() time.Duration {
	return time.Duration(c.ScriptSettings.WorkerJoinTimeoutSeconds) * time.Second
}

// ThroughputTimeout returns the bound on one throughput test
func (c *Config) ThroughputTimeout() time.Duration {
	return time.Duration(c.ScriptSettings.ThroughputTimeoutSeconds) * time.Second
}

// LoadConfig resolves the configuration file and parses it.
//
// The returned configuration is never nil. A non-nil error means the file was
// missing, unreadable, malformed or invalid and the built-in defaults were
// substituted as a whole; callers log it as a warning and carry on.
func LoadConfig(providedPath string) (*Config, error) {
	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return NewDefaultConfig(), common.WrapErrorf(common.ErrConfigNotFound, "'%s'", providedPath)
		}
		return NewDefaultConfig(), common.WrapError(common.ErrConfigNotFound, "no config file in default locations")
	}

	data, err := loadConfigFileContent(filePath)
	if err != nil {
		return NewDefaultConfig(), common.NewConfigurationError("", "", "failed to read config file", err)
	}

	cfg := NewDefaultConfig()
	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return NewDefaultConfig(), common.NewConfigurationError("", "", "failed to parse config content", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return NewDefaultConfig(), common.NewConfigurationError("", "", "config file rejected", err)
	}

	cfg.Source = filePath
	return cfg, nil
}

// loadConfigFileContent reads the config file with a size cap
func loadConfigFileContent(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, common.NewError("'%s' is a directory", filePath)
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewError("'%s' is larger than %d bytes", filePath, maxConfigFileSize)
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *Config) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *Config) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
