// Package logx wraps zerolog for vrcwatch.
//
// It owns the process-wide logger: Init picks level and output, Logger hands
// the configured instance to components such as the vrchat client, and the
// Info/Warn/Error helpers take flat key/value field lists.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options control logger construction.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...).
	// Unknown or empty names fall back to info.
	Level string
	// Console renders human-readable lines instead of JSON.
	Console bool
	// Out receives log output. Nil means stderr.
	Out io.Writer
}

// Init configures the global logger and returns it.
func Init(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Logger().Level(ParseLevel(opts.Level))
	log.Logger = logger
	return logger
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// checkFields drops an odd-length field list so zerolog does not panic on it.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msgf("logx %s call received odd number of fields; fields ignored", level)
		return nil
	}
	return fields
}

// Info logs msg at info level with key/value fields.
func Info(msg string, fields ...any) {
	fields = checkFields("info", fields)
	Logger().Info().Fields(fields).Msg(msg)
}

// Warn logs msg at warn level with key/value fields.
func Warn(msg string, fields ...any) {
	fields = checkFields("warn", fields)
	Logger().Warn().Fields(fields).Msg(msg)
}

// Error logs err and msg at error level with key/value fields.
func Error(err error, msg string, fields ...any) {
	fields = checkFields("error", fields)
	Logger().Error().Err(err).Fields(fields).Msg(msg)
}
