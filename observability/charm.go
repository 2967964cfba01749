package observability

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// CharmConfig configures the console logger used by the command line tool.
type CharmConfig struct {
	Output     io.Writer
	Verbose    bool
	JSON       bool
	TimeFormat string
}

type charmLogger struct {
	l *charmlog.Logger
}

// NewCharmLogger returns a Logger writing through charmbracelet/log.
func NewCharmLogger(cfg CharmConfig) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level := charmlog.InfoLevel
	if cfg.Verbose {
		level = charmlog.DebugLevel
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           level,
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, fields ...Field) { c.l.Debug(msg, keyvals(fields)...) }
func (c *charmLogger) Info(msg string, fields ...Field)  { c.l.Info(msg, keyvals(fields)...) }
func (c *charmLogger) Warn(msg string, fields ...Field)  { c.l.Warn(msg, keyvals(fields)...) }
func (c *charmLogger) Error(msg string, fields ...Field) { c.l.Error(msg, keyvals(fields)...) }

func (c *charmLogger) With(fields ...Field) Logger {
	return &charmLogger{l: c.l.With(keyvals(fields)...)}
}

func keyvals(fields []Field) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key(), f.Value())
	}
	return out
}
