// Package logger provides leveled logging for sercha-indexsync.
// Errors are always printed to stderr; info and debug output is only shown
// when the level is raised (the --verbose flag selects debug).
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level controls which messages are printed.
type Level int

// Log levels, from quietest to noisiest.
const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var (
	mu         sync.RWMutex
	level      = LevelWarn
	output     io.Writer = os.Stderr
	timestamps bool
)

// SetLevel sets the most verbose level that is printed.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetVerbose switches between debug output and the default level.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// IsVerbose returns true if debug output is enabled.
func IsVerbose() bool {
	return GetLevel() >= LevelDebug
}

// SetTimestamps prefixes each line with an RFC 3339 timestamp. Long-running
// commands such as watch enable it.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l > level {
		return
	}
	prefix := "[" + tag + "] "
	if timestamps {
		prefix = time.Now().Format(time.RFC3339) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message if debug output is enabled.
func Debug(format string, args ...any) {
	logf(LevelDebug, "DEBUG", format, args...)
}

// Info prints an informational message if the level allows it.
func Info(format string, args ...any) {
	logf(LevelInfo, "INFO", format, args...)
}

// Warn prints a warning message if the level allows it.
func Warn(format string, args ...any) {
	logf(LevelWarn, "WARN", format, args...)
}

// Error prints an error message. Errors are never suppressed.
func Error(format string, args ...any) {
	logf(LevelError, "ERROR", format, args...)
}

// Section prints a section header if debug output is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level >= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
