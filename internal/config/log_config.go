package config

// LogConfig defines configuration for logging
type LogConfig struct {
	LogFilename    string  `json:"log_filename" yaml:"log_filename"`
	LogLevel       string  `json:"log_level" yaml:"log_level" validate:"loglevel"`
	LogFormat      string  `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"logformat"`
	LogMaxMB       float64 `json:"log_max_mb" yaml:"log_max_mb" validate:"gt=0"`
	LogBackupCount int     `json:"log_backup_count" yaml:"log_backup_count" validate:"min=0"`
}

// NewDefaultLogConfig creates default log configuration
func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFilename:    DefaultLogFilename,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		LogMaxMB:       DefaultLogMaxMB,
		LogBackupCount: DefaultLogBackupCount,
	}
}
