// Package logger provides leveled logging for cpaneldns.
//
// Diagnostics go to stderr, separate from the user-facing output package
// (stdout). certbot captures hook stderr into its own log, so a verbose hook
// run leaves the full cPanel conversation in letsencrypt.log.
//
// # Log Levels
//
// Four log levels are supported, in order of severity:
//   - Debug: Request/response traces
//   - Info: Record and certificate changes
//   - Warn: Conditions that don't prevent operation
//   - Error: Conditions that abort an operation
//
// # Initialization
//
//	logger.Init(verbose)  // verbose=true enables Debug level
//
// By default only Warn and Error messages are shown.
//
// # Usage
//
//	logger.Debug("req %s: %s", fn, logger.Redact(params))
//	logger.Info("Successfully added TXT record for %s", name)
//	logger.Warn("%s: token and password are exclusive", path)
//
//	logger.DebugFields("zone resolved", logger.Fields{
//	    "zone": "example.com",
//	    "name": "_acme-challenge",
//	})
//
// # Output Format
//
//	[LEVEL] YYYY-MM-DD HH:MM:SS message key=value ...
//
// # Secrets
//
// Redact renders query parameters with certificate material, private keys
// and TXT payloads masked. Use it for every logged request; the
// Authorization header must never be logged at all.
package logger

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging severity level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields are structured key/value pairs appended to a log line.
type Fields map[string]interface{}

// Logger handles leveled logging with thread-safe output.
type Logger struct {
	level  Level
	output io.Writer
	mu     sync.Mutex
}

var std = &Logger{
	level:  LevelWarn,
	output: os.Stderr,
}

// secretParams are masked by Redact.
var secretParams = map[string]bool{
	"crt":      true,
	"key":      true,
	"cabundle": true,
	"txtdata":  true,
	"password": true,
	"token":    true,
}

// Init initializes the global logger with the specified verbosity.
func Init(verbose bool) {
	std.mu.Lock()
	defer std.mu.Unlock()

	if verbose {
		std.level = LevelDebug
	} else {
		std.level = LevelWarn
	}
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(level Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = level
}

// SetOutput sets the output destination for the global logger.
// A nil writer restores os.Stderr.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	std.output = w
}

// GetLevel returns the current log level.
func GetLevel() Level {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.level
}

// Enabled reports whether messages at level would be written.
func Enabled(level Level) bool {
	return level >= GetLevel()
}

func (l *Logger) write(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(l.output, "[%s] %s %s%s\n", level.String(), timestamp, msg, formatFields(fields))
}

// formatFields renders fields as " k=v k=v" sorted by key.
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// Redact encodes params as a query string with secret values masked.
// Masked values keep their length so truncated payloads stay visible.
func Redact(params url.Values) string {
	masked := make(url.Values, len(params))
	for k, vs := range params {
		if !secretParams[k] {
			masked[k] = vs
			continue
		}
		for _, v := range vs {
			masked.Add(k, fmt.Sprintf("<redacted:%d>", len(v)))
		}
	}
	return masked.Encode()
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	std.write(LevelDebug, fmt.Sprintf(format, args...), nil)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	std.write(LevelInfo, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	std.write(LevelWarn, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	std.write(LevelError, fmt.Sprintf(format, args...), nil)
}

// DebugFields logs a debug message with structured fields.
func DebugFields(msg string, fields Fields) {
	std.write(LevelDebug, msg, fields)
}

// InfoFields logs an informational message with structured fields.
func InfoFields(msg string, fields Fields) {
	std.write(LevelInfo, msg, fields)
}

// WarnFields logs a warning message with structured fields.
func WarnFields(msg string, fields Fields) {
	std.write(LevelWarn, msg, fields)
}

// ErrorFields logs an error message with structured fields.
func ErrorFields(msg string, fields Fields) {
	std.write(LevelError, msg, fields)
}

// LogError logs err with a context message. A nil err is ignored.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	std.write(LevelError, fmt.Sprintf("%s: %v", msg, err), nil)
}
