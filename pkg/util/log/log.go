// Package log wraps klog so the rest of the codebase logs through a single
// stderr-bound logger with numeric verbosity levels.
package log

import (
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

// StderrLog is the logger used by client-facing packages. All build output
// goes to stderr so stdout stays reserved for machine-readable results.
var StderrLog = Logger{}

// Logger provides a leveled logging facade over klog.
type Logger struct{}

// Verbose gates log statements on the configured verbosity.
type Verbose struct {
	enabled bool
}

// V returns a Verbose gate for the given level.
func (l Logger) V(level int32) Verbose {
	return Verbose{enabled: bool(klog.V(klog.Level(level)).Enabled())}
}

// Is reports whether the given verbosity level is enabled.
func (l Logger) Is(level int32) bool {
	return bool(klog.V(klog.Level(level)).Enabled())
}

// Info logs at the default level.
func (l Logger) Info(args ...interface{}) {
	klog.InfoDepth(1, args...)
}

// Infof logs a formatted message at the default level.
func (l Logger) Infof(format string, args ...interface{}) {
	klog.InfoDepth(1, fmt.Sprintf(format, args...))
}

// Warning logs a warning.
func (l Logger) Warning(args ...interface{}) {
	klog.WarningDepth(1, args...)
}

// Warningf logs a formatted warning.
func (l Logger) Warningf(format string, args ...interface{}) {
	klog.WarningDepth(1, fmt.Sprintf(format, args...))
}

// Error logs an error.
func (l Logger) Error(args ...interface{}) {
	klog.ErrorDepth(1, args...)
}

// Errorf logs a formatted error.
func (l Logger) Errorf(format string, args ...interface{}) {
	klog.ErrorDepth(1, fmt.Sprintf(format, args...))
}

// Fatal logs an error and exits.
func (l Logger) Fatal(args ...interface{}) {
	klog.ErrorDepth(1, args...)
	klog.Flush()
	os.Exit(1)
}

// Info logs when the gate is enabled.
func (v Verbose) Info(args ...interface{}) {
	if v.enabled {
		klog.InfoDepth(1, args...)
	}
}

// Infof logs a formatted message when the gate is enabled.
func (v Verbose) Infof(format string, args ...interface{}) {
	if v.enabled {
		klog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}
