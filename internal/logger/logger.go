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

// Init initializes the logger with the given configuration and installs it as
// the global logger. Output goes to stdout.
func Init(level, format string) {
	Logger = New(os.Stdout, level, format)
	zerolog.SetGlobalLevel(parseLogLevel(level))

	// Set the global logger
	log.Logger = Logger
}

// New builds a logger writing to w without touching global state.
// The CLI uses it with stderr so stdout stays reserved for program output.
func New(w io.Writer, level, format string) zerolog.Logger {
	var base zerolog.Logger
	if strings.ToLower(format) == "json" {
		base = zerolog.New(w)
	} else {
		// Console format with colors
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    w != os.Stdout && w != os.Stderr,
		})
	}

	return base.Level(parseLogLevel(level)).With().
		Timestamp().
		Logger()
}

// parseLogLevel parses string log level to zerolog level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
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
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
