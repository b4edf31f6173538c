package logger

import (
	"strings"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/rs/zerolog"
)

// ConfigConverter converts config.LogConfig to LoggerConfig
type ConfigConverter struct {
	defaultLevel  zerolog.Level
	defaultFormat LogFormat
}

// NewConfigConverter creates a converter defaulting to info level console output.
func NewConfigConverter() *ConfigConverter {
	return &ConfigConverter{
		defaultLevel:  zerolog.InfoLevel,
		defaultFormat: FormatConsole,
	}
}

// ConvertConfig converts application config to logger config. An invalid level
// falls back to the default and is reported in the returned error.
func (cc *ConfigConverter) ConvertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	level, err := cc.level(cfg.LogLevel)

	return LoggerConfig{
		Level:         level,
		Format:        cc.format(cfg.LogFormat),
		EnableConsole: true,
		EnableFile:    cfg.LogFile != "",
		FilePath:      cfg.LogFile,
		MaxSizeMB:     positiveOr(cfg.MaxLogSizeMB, config.DefaultMaxLogSizeMB),
		MaxBackups:    positiveOr(cfg.MaxLogBackups, config.DefaultMaxLogBackups),
	}, err
}

func (cc *ConfigConverter) level(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return cc.defaultLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return cc.defaultLevel, common.WrapErrorf(err, "invalid log level '%s'", name)
	}
	return level, nil
}

// format maps a name from formatNames back to its LogFormat.
func (cc *ConfigConverter) format(name string) LogFormat {
	name = strings.ToLower(strings.TrimSpace(name))
	for format, known := range formatNames {
		if known == name {
			return format
		}
	}
	return cc.defaultFormat
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
