package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// initLogger builds the zerolog logger from environment variables.
// LOG_LEVEL selects the level (DEBUG=true forces debug), LOG_FORMAT=console
// switches from JSON to human-readable output.
func initLogger() {
	initOnce.Do(func() {
		level := parseLevel()

		var output io.Writer = os.Stdout
		if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
			output = zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: "15:04:05",
			}
		}

		zerolog.TimeFieldFormat = time.RFC3339
		logger = zerolog.New(output).
			With().
			Timestamp().
			Logger().
			Level(toZerolog(level))
	})
}

func parseLevel() LogLevel {
	if debug := os.Getenv("DEBUG"); debug != "" {
		switch strings.ToLower(debug) {
		case "1", "true", "yes", "on":
			return LevelDebug
		}
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func toZerolog(l LogLevel) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLogger()
	switch logger.GetLevel() {
	case zerolog.DebugLevel:
		return LevelDebug
	case zerolog.WarnLevel:
		return LevelWarn
	case zerolog.ErrorLevel:
		return LevelError
	default:
		return LevelInfo
	}
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	initLogger()
	logger.Debug().Msgf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	initLogger()
	logger.Info().Msgf(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	initLogger()
	logger.Warn().Msgf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	initLogger()
	logger.Error().Msgf(format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	initLogger()
	logger.Fatal().Msgf(format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
