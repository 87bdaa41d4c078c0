package testing

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/manishiitg/cloud-sdk-go/interfaces"
)

// SimpleLogger is a basic logger implementation for the fixture tooling and tests
type SimpleLogger struct {
	mu     sync.Mutex
	output io.Writer
	level  string
}

var testLogger interfaces.Logger

// NewSimpleLogger returns a logger writing to output. Debug lines are only
// written when level is "debug".
func NewSimpleLogger(output io.Writer, level string) *SimpleLogger {
	return &SimpleLogger{output: output, level: level}
}

// InitTestLogger initializes the shared logger
func InitTestLogger(logFile string, level string) {
	var output io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			output = file
		}
	}
	testLogger = NewSimpleLogger(output, level)
}

// GetTestLogger returns the shared logger instance
func GetTestLogger() interfaces.Logger {
	if testLogger == nil {
		testLogger = NewSimpleLogger(os.Stdout, "info")
	}
	return testLogger
}

// SetTestLogger allows tests to override the shared logger
func SetTestLogger(logger interfaces.Logger) {
	testLogger = logger
}

func (l *SimpleLogger) write(prefix, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.output, prefix+format+"\n", v...) //nolint:errcheck // Logging to stdout/stderr, safe to ignore
}

func (l *SimpleLogger) Infof(format string, v ...any) {
	l.write("[INFO] ", format, v...)
}

func (l *SimpleLogger) Errorf(format string, v ...any) {
	l.write("[ERROR] ", format, v...)
}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	if l.level == "debug" {
		l.write("[DEBUG] ", format, args...)
	}
}
