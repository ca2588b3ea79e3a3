// Package logger provides the structured logging interface used across
// sortnet, backed by zerolog. Output goes to the console, to daily-rotated
// files, or both.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field represents a key-value pair for structured log output.
type Field struct {
	Key   string
	Value any
}

// Err returns a Field carrying err under the "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// F is shorthand for building a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is an interface for structured logging. Loggers may be derived with
// With for connection-scoped or component-scoped fields.
type Logger interface {
	// Debug logs a message at debug level with optional structured fields.
	Debug(msg string, fields ...Field)

	// Info logs a message at info level with optional structured fields.
	Info(msg string, fields ...Field)

	// Warn logs a message at warn level with optional structured fields.
	Warn(msg string, fields ...Field)

	// Error logs a message at error level with optional structured fields.
	Error(msg string, fields ...Field)

	// With returns a new Logger that includes the given fields in all
	// subsequent log entries. The original Logger is unchanged.
	//
	// Parameters:
	//   - fields: Key-value pairs to attach to the derived logger
	//
	// Returns:
	//   - A new Logger with the specified fields
	With(fields ...Field) Logger

	// Close releases resources held by the logger (e.g. file handles).
	// It is safe to call multiple times.
	Close() error
}

// Options configures a Logger built by New.
type Options struct {
	// Service is added as the "service" field to every entry and names log files.
	Service string
	// Level is the minimum level written.
	Level zerolog.Level
	// Dir enables daily-rotated file output when non-empty.
	Dir string
	// Console writes human-readable output instead of JSON to Out.
	Console bool
	// Out is the primary writer; os.Stderr when nil.
	Out io.Writer
}

type zerologLogger struct {
	logger     zerolog.Logger
	fileWriter *DailyFileWriter
	ownsWriter bool
}

// New builds a Logger from opts. When opts.Dir is set, entries are written
// to both the primary writer and a DailyFileWriter in that directory.
//
// Parameters:
//   - opts: Output, level and service settings
//
// Returns:
//   - The Logger, or an error if the log directory or file cannot be opened
func New(opts Options) (Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var fileWriter *DailyFileWriter
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		fw, err := NewDailyFileWriter(opts.Service, opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create file writer: %w", err)
		}

		fileWriter = fw
		out = io.MultiWriter(out, fw)
	}

	return &zerologLogger{
		logger:     zerolog.New(out).With().Str("service", opts.Service).Timestamp().Logger().Level(opts.Level),
		fileWriter: fileWriter,
		ownsWriter: fileWriter != nil,
	}, nil
}

// NewZerologLogger wraps an existing zerolog.Logger, adding the service name
// and a timestamp to all entries and filtering by level.
func NewZerologLogger(l zerolog.Logger, serviceName string, level zerolog.Level) Logger {
	return &zerologLogger{
		logger: l.With().Str("service", serviceName).Timestamp().Logger().Level(level),
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level. Unknown names are an error.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

func (z *zerologLogger) Debug(msg string, fields ...Field) {
	z.logger.Debug().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...Field) {
	z.logger.Info().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...Field) {
	z.logger.Warn().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...Field) {
	z.logger.Error().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) With(fields ...Field) Logger {
	return &zerologLogger{
		logger:     z.logger.With().Fields(toMap(fields)).Logger(),
		fileWriter: z.fileWriter,
	}
}

func (z *zerologLogger) Close() error {
	if z.fileWriter != nil && z.ownsWriter {
		return z.fileWriter.Close()
	}

	return nil
}

// toMap converts a slice of Field into a map for zerolog.
func toMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}

	return m
}
