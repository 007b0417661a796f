// Package logging is a lightweight structured logger used across hookcast.
// It writes human-readable lines with JSON-encoded fields to stderr and,
// when a log directory is configured, to a size-rotated file.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger carries a set of fields that are attached to every line it emits.
type Logger struct {
	mu     sync.Mutex
	fields map[string]any
	std    *log.Logger
}

var (
	// GlobalLogger is the package-level logger used by the convenience
	// functions and by other packages.
	GlobalLogger *Logger

	setupOnce sync.Once
	fileSink  *lumberjack.Logger
)

// SetupLogger initializes the global logger writing to stderr only. It is
// idempotent and thread-safe.
func SetupLogger() error {
	setupOnce.Do(func() {
		GlobalLogger = &Logger{
			fields: make(map[string]any),
			std:    log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
		}
	})
	return nil
}

// SetupFileLogger initializes the global logger writing to stderr and to a
// rotated file under logDir. Rotation keeps a handful of compressed
// backups so an always-on relay never fills its disk with request logs.
func SetupFileLogger(logDir string) error {
	if logDir == "" {
		return SetupLogger()
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	var setupErr error
	setupOnce.Do(func() {
		fileSink = &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "hookcast.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		GlobalLogger = &Logger{
			fields: make(map[string]any),
			std:    log.New(io.MultiWriter(os.Stderr, fileSink), "", log.LstdFlags|log.Lmicroseconds),
		}
	})
	return setupErr
}

// CloseGlobalLogger closes the rotated file sink when one was opened.
func CloseGlobalLogger() error {
	if fileSink == nil {
		return nil
	}
	return fileSink.Close()
}

// normalizeValue converts common types into forms that marshal well to JSON:
// errors become their Error() string, times become RFC3339Nano strings, and
// nested maps and slices are normalized recursively.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case error:
		if x == nil {
			return nil
		}
		return x.Error()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		if x == nil {
			return nil
		}
		return x.String()
	case map[string]any:
		n := make(map[string]any, len(x))
		for k, vv := range x {
			n[k] = normalizeValue(vv)
		}
		return n
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = normalizeValue(vv)
		}
		return s
	default:
		return v
	}
}

func normalizeFields(fields map[string]any) map[string]any {
	n := make(map[string]any, len(fields))
	for k, v := range fields {
		n[k] = normalizeValue(v)
	}
	return n
}

// buildMessage composes the final log line including level and JSON-encoded
// fields when present.
func (l *Logger) buildMessage(level, msg string) string {
	l.mu.Lock()
	fieldsCopy := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		fieldsCopy[k] = v
	}
	l.mu.Unlock()

	if len(fieldsCopy) == 0 {
		return fmt.Sprintf("[%s] %s", level, msg)
	}

	normalized := normalizeFields(fieldsCopy)
	b, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Sprintf("[%s] %s | fields=%v", level, msg, normalized)
	}
	return fmt.Sprintf("[%s] %s | %s", level, msg, string(b))
}

// WithField returns a new Logger with an additional field. It does not
// mutate the receiver.
func (l *Logger) WithField(key string, value any) *Logger {
	l.mu.Lock()
	newFields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	l.mu.Unlock()

	newFields[key] = value
	return &Logger{fields: newFields, std: l.std}
}

// WithFields returns a new Logger with additional fields merged. It does
// not mutate the receiver.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	l.mu.Lock()
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	l.mu.Unlock()
	for k, v := range fields {
		newFields[k] = v
	}
	return &Logger{fields: newFields, std: l.std}
}

// WithError attaches an error as a string field (nil-safe).
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// ErrorWithErr logs a message along with an error (nil-safe).
func (l *Logger) ErrorWithErr(msg string, err error) {
	if err == nil {
		l.Error(msg)
		return
	}
	l.WithField("error", err.Error()).Error(msg)
}

func (l *Logger) output(level, msg string) {
	if l.std == nil {
		_ = SetupLogger()
		l.std = GlobalLogger.std
	}
	l.std.Println(l.buildMessage(level, msg))
}

func (l *Logger) Debug(msg string) { l.output("DEBUG", msg) }
func (l *Logger) Info(msg string)  { l.output("INFO", msg) }
func (l *Logger) Warn(msg string)  { l.output("WARN", msg) }
func (l *Logger) Error(msg string) { l.output("ERROR", msg) }

func (l *Logger) Debugf(format string, v ...any) { l.output("DEBUG", fmt.Sprintf(format, v...)) }
func (l *Logger) Infof(format string, v ...any)  { l.output("INFO", fmt.Sprintf(format, v...)) }
func (l *Logger) Warnf(format string, v ...any)  { l.output("WARN", fmt.Sprintf(format, v...)) }
func (l *Logger) Errorf(format string, v ...any) { l.output("ERROR", fmt.Sprintf(format, v...)) }

// Fatal logs and exits.
func (l *Logger) Fatal(msg string) {
	l.output("FATAL", msg)
	time.Sleep(10 * time.Millisecond)
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, v ...any) {
	l.output("FATAL", fmt.Sprintf(format, v...))
	time.Sleep(10 * time.Millisecond)
	os.Exit(1)
}

// Convenience top-level helpers operating on the global logger.
func Info(msg string) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Info(msg)
}

func Infof(f string, v ...any) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Infof(f, v...)
}

func Debugf(f string, v ...any) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Debugf(f, v...)
}

func Warnf(f string, v ...any) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Warnf(f, v...)
}

func Error(msg string) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Error(msg)
}

func Errorf(f string, v ...any) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Errorf(f, v...)
}

func Fatalf(f string, v ...any) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.Fatalf(f, v...)
}

// ErrorWithErr logs a message along with an error on the global logger.
func ErrorWithErr(msg string, err error) {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	GlobalLogger.ErrorWithErr(msg, err)
}

// WithFields returns a logger built from the global logger with the
// provided fields.
func WithFields(fields map[string]any) *Logger {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	return GlobalLogger.WithFields(fields)
}

// WithField returns a logger built from the global logger with one field.
func WithField(key string, value any) *Logger {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	return GlobalLogger.WithField(key, value)
}

// WithError attaches an error to the global logger (nil-safe).
func WithError(err error) *Logger {
	if GlobalLogger == nil {
		_ = SetupLogger()
	}
	return GlobalLogger.WithError(err)
}
