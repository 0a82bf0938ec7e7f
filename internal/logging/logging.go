// This package configures the zerolog logger of the framecat command.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "FRAMED_LOG_LEVEL"
	EnvLogNoColor = "FRAMED_LOG_NOCOLOR"
)

type Config struct {
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

// DefaultConfig returns a config that logs at info level to stderr, so that stdout stays free for
// frames.
func DefaultConfig() Config {
	return Config{
		Level: zerolog.InfoLevel,
		Out:   os.Stderr,
	}
}

// New returns a console logger for app. Environment overrides take precedence over cfg.
func New(app string, cfg Config) zerolog.Logger {
	applyEnvOverrides(&cfg)

	output := zerolog.ConsoleWriter{
		Out:        cfg.Out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Str("app", app).
		Logger()
	log.Logger = logger

	return logger
}

// ParseLevel parses a level name. It reports false for unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
