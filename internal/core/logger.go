package core

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logger used by the service.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// LogLevel names a minimum log level.
type LogLevel string

// Log levels accepted in configuration.
const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

func (l LogLevel) charm() charmlog.Level {
	switch l {
	case LogDebug:
		return charmlog.DebugLevel
	case LogWarn:
		return charmlog.WarnLevel
	case LogError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// LogConfig configures NewLogger.
type LogConfig struct {
	Level  LogLevel
	JSON   bool
	Output io.Writer
}

type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger returns a Logger backed by charmbracelet/log.
func NewLogger(cfg LogConfig) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
		Level:           cfg.Level.charm(),
		Prefix:          "heritagecore",
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }
