package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application logger instance
var Logger zerolog.Logger

// Init configures the global logger. Format is "json" for machine
// consumption or anything else for a colored console writer.
func Init(level, format string) {
	zerolog.SetGlobalLevel(parseLogLevel(level))
	Logger = zerolog.New(output(format)).With().
		Timestamp().
		Caller().
		Logger()
	log.Logger = Logger
}

func output(format string) io.Writer {
	if strings.EqualFold(format, "json") {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}

// For returns the configured logger tagged with a component name. Every
// process names itself so mixed log streams stay attributable.
func For(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
