package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/rs/zerolog"
)

const (
	logFormatJSON    = "json"
	logFormatConsole = "console"
)

// Logger is the service-wide structured logger.
type Logger struct {
	zerolog.Logger
}

// New builds a logger writing to stdout in the configured format and level.
// Unknown levels fall back to info.
func New(cfg config.LoggingConfig) Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LoggingConfig, out io.Writer) Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, logFormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return Logger{
		Logger: zerolog.New(out).
			Level(level).
			With().
			Timestamp().
			Logger(),
	}
}

// Component returns a child logger tagged with the component name.
func (l Logger) Component(name string) Logger {
	return Logger{Logger: l.With().Str("component", name).Logger()}
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() Logger {
	return Logger{Logger: zerolog.Nop()}
}
