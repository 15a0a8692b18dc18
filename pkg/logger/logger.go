// Package logger provides the process-wide execution log. Console
// output stays clean for progress reporting; diagnostics go to a file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	verbose      bool
	mu           sync.Mutex
)

// Init opens (or reopens) the log file. Messages logged before Init
// are dropped.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = log.New(f, "", log.Ltime|log.Lmicroseconds)
	return nil
}

// SetVerbose enables Debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
		globalLogger = nil
	}
}

func logf(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf(level+" "+format, v...)
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf("[INFO]", format, v...)
}

// Debug logs a debug message when verbose mode is on.
func Debug(format string, v ...interface{}) {
	mu.Lock()
	on := verbose
	mu.Unlock()
	if on {
		logf("[DEBUG]", format, v...)
	}
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf("[WARN]", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf("[ERROR]", format, v...)
}

// Writer returns the underlying log writer for subprocess output.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
