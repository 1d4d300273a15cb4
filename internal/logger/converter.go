package logger

import (
	"math"

	"github.com/aleister1102/neveridle/internal/config"
	"github.com/rs/zerolog"
)

// ConfigConverter converts config.LogConfig to LoggerConfig
type ConfigConverter struct {
	levelParser  *LogLevelParser
	formatParser *LogFormatParser
}

// NewConfigConverter creates a new config converter
func NewConfigConverter() *ConfigConverter {
	return &ConfigConverter{
		levelParser:  NewLogLevelParser(),
		formatParser: NewLogFormatParser(),
	}
}

// ConvertConfig converts application config to logger config
func (cc *ConfigConverter) ConvertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	level, err := cc.levelParser.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel // fallback to default
	}

	return LoggerConfig{
		Level:         level,
		Format:        cc.formatParser.ParseFormat(cfg.LogFormat),
		EnableConsole: true,
		EnableFile:    cfg.LogFilename != "",
		FilePath:      cfg.LogFilename,
		MaxSizeMB:     cc.getMaxSizeMB(cfg.LogMaxMB),
		MaxBackups:    cc.getMaxBackups(cfg.LogBackupCount),
	}, err
}

// getMaxSizeMB rounds fractional sizes up; lumberjack only rotates on whole megabytes
func (cc *ConfigConverter) getMaxSizeMB(maxSize float64) int {
	if maxSize <= 0 {
		return config.DefaultLogMaxMB
	}
	return int(math.Ceil(maxSize))
}

// getMaxBackups returns max backups with default fallback
func (cc *ConfigConverter) getMaxBackups(maxBackups int) int {
	if maxBackups < 0 {
		return config.DefaultLogBackupCount
	}
	return maxBackups
}
