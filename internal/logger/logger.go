package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level represents the logging level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
}

// String returns the string representation of the log level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// Logger is the interface for logging operations
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)
	SetLevel(level Level)
	// With returns a logger that prefixes every message with the given tag,
	// e.g. a run ID. The returned logger shares the parent's output and level.
	With(tag string) Logger
}

// LogConfig holds configuration for the logger
type LogConfig struct {
	// Output destination: "file" or "stderr"
	Output string
	// Log level: "debug", "info", "warn", "error", "fatal"
	Level string
	// FilePath for file output (only used when Output is "file")
	FilePath string
}

// sink is shared by a logger and every logger derived from it through With.
type sink struct {
	logger *log.Logger
	level  Level
}

type standardLogger struct {
	sink   *sink
	prefix string
}

// NewLogger creates a new logger based on the provided configuration.
// Empty fields fall back to LOG_OUTPUT, LOG_LEVEL and LOG_FILE_PATH.
func NewLogger(config LogConfig) (Logger, error) {
	output := firstNonEmpty(config.Output, os.Getenv("LOG_OUTPUT"), "stderr")

	var writer io.Writer
	switch output {
	case "stderr":
		writer = os.Stderr
	case "file":
		filePath := firstNonEmpty(config.FilePath, os.Getenv("LOG_FILE_PATH"))
		if filePath == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			logDir := filepath.Join(homeDir, ".schemacast")
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			filePath = filepath.Join(logDir, "schemacast.log")
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	default:
		return nil, fmt.Errorf("invalid log output: %s (expected 'file' or 'stderr')", output)
	}

	level := ParseLevel(firstNonEmpty(config.Level, os.Getenv("LOG_LEVEL"), "info"))
	return NewWriterLogger(writer, level), nil
}

// NewWriterLogger creates a logger writing timestamped lines to w.
func NewWriterLogger(w io.Writer, level Level) Logger {
	return &standardLogger{
		sink: &sink{
			logger: log.New(w, "", log.LstdFlags),
			level:  level,
		},
	}
}

// NewNoOpLogger creates a logger that discards all output (useful for tests)
func NewNoOpLogger() Logger {
	return NewWriterLogger(io.Discard, FatalLevel)
}

// ParseLevel converts a string to a Level, defaulting to InfoLevel
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (l *standardLogger) SetLevel(level Level) {
	l.sink.level = level
}

func (l *standardLogger) With(tag string) Logger {
	prefix := tag
	if l.prefix != "" {
		prefix = l.prefix + " " + tag
	}
	return &standardLogger{sink: l.sink, prefix: prefix}
}

func (l *standardLogger) Debug(format string, v ...any) { l.log(DebugLevel, format, v...) }

func (l *standardLogger) Info(format string, v ...any) { l.log(InfoLevel, format, v...) }

func (l *standardLogger) Warn(format string, v ...any) { l.log(WarnLevel, format, v...) }

func (l *standardLogger) Error(format string, v ...any) { l.log(ErrorLevel, format, v...) }

// Fatal logs a fatal message and exits
func (l *standardLogger) Fatal(format string, v ...any) {
	l.log(FatalLevel, format, v...)
	os.Exit(1)
}

func (l *standardLogger) log(level Level, format string, v ...any) {
	if level < l.sink.level {
		return
	}
	message := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		l.sink.logger.Printf("[%s] [%s] %s", level, l.prefix, message)
		return
	}
	l.sink.logger.Printf("[%s] %s", level, message)
}
