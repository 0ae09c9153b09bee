// Package logger provides a lightweight, centralized logging facility
// with configurable verbosity levels.
//
// Design goals:
//   - Simple API (Errorf, Infof, Debugf, Tracef)
//   - Centralized verbosity control
//   - Zero formatting logic at call sites
//   - Leverages Go's standard log package
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// A single run processes many broker sub-accounts across several
// exchanges, so the plain-message API grows an Errorw/Infow/Debugw/Tracew
// counterpart that tags a line with structured Fields (account,
// exchange, code) instead of folding them into the format string by
// hand at every call site:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infow("normalized legs", []logger.Field{logger.F("account", acct)})
//	logger.Debugf("spot=%f vol=%f", spot, vol)
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// current holds the active verbosity level.
// Only messages with level <= current are logged.
var current Level = Info

// init configures the global logger used by this package.
//
// init() is executed automatically when the package is imported,
// before any other code runs. This makes it ideal for one-time,
// package-wide setup such as logging configuration.
func init() {
	// Write all log output to standard error (stderr).
	// This ensures logs are separated from normal program output,
	// which is especially important for CLI tools and pipelines.
	log.SetOutput(os.Stderr)

	// Configure log formatting:
	//   - log.LstdFlags  → date and time (YYYY/MM/DD HH:MM:SS)
	//   - log.Lshortfile → source file name and line number
	//
	// Example output:
	//   2026/01/25 15:42:10 main.go:114 [INFO]  normalized 2 legs from 2 holding rows
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during application startup
// (e.g. after parsing CLI flags).
func SetVerbosity(v int) {
	current = Level(v)
}

// Field is a single structured key=value pair attached to a log line —
// account, exchange, code_dir, the identifiers a batch run over many
// accounts needs to grep by, rather than ones hand-built per call site.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field. Typical keys are "account", "exchange", and
// "code"; the value is formatted with %v.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

func renderFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s=%v ", f.Key, f.Value)
	}
	return b.String()
}

// logf is the internal logging helper.
// It checks verbosity and delegates formatting/output
// to the standard library logger. The call depth of 3 makes
// Lshortfile report the caller of Errorf/Infof/... rather than this file.
func logf(l Level, prefix, format string, fields []Field, args ...any) {
	if current >= l {
		log.Output(3, fmt.Sprintf(prefix+renderFields(fields)+format, args...))
	}
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	logf(Error, "[ERROR] ", format, nil, args...)
}

// Infof logs an informational message.
// Use this for major lifecycle events.
func Infof(format string, args ...any) {
	logf(Info, "[INFO]  ", format, nil, args...)
}

// Debugf logs debugging information.
// Use this for diagnostic output useful during development.
func Debugf(format string, args ...any) {
	logf(Debug, "[DEBUG] ", format, nil, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, "[TRACE] ", format, nil, args...)
}

// Errorw logs an error-level message tagged with structured fields.
func Errorw(format string, fields []Field, args ...any) {
	logf(Error, "[ERROR] ", format, fields, args...)
}

// Infow logs an informational message tagged with structured fields.
func Infow(format string, fields []Field, args ...any) {
	logf(Info, "[INFO]  ", format, fields, args...)
}

// Debugw logs a debug message tagged with structured fields.
func Debugw(format string, fields []Field, args ...any) {
	logf(Debug, "[DEBUG] ", format, fields, args...)
}

// Tracew logs a trace message tagged with structured fields.
func Tracew(format string, fields []Field, args ...any) {
	logf(Trace, "[TRACE] ", format, fields, args...)
}
