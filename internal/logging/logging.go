// Package logging holds the process-wide zerolog logger shared by the
// connection machinery and the CLI. The package is usable without
// Init: the default logger writes INFO and above to stderr.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger = newLogger(Config{Level: zerolog.InfoLevel})

// Config selects the level, destination and format of the logger.
type Config struct {
	// Level is the minimum level emitted.
	Level zerolog.Level
	// Output receives the log stream. Nil selects os.Stderr.
	Output io.Writer
	// Pretty switches from JSON lines to console output.
	Pretty bool
}

// Init replaces the process logger.
func Init(cfg Config) {
	logger = newLogger(cfg)
}

func newLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
}

// ParseLevel maps a configuration string to a level. Unrecognized
// values select INFO.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO", "":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug() *zerolog.Event { return logger.Debug() }

func Info() *zerolog.Event { return logger.Info() }

func Error() *zerolog.Event { return logger.Error() }
