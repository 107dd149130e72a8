// Package monitoring carries the controller's observability: the
// package-level diagnostic logger and the Prometheus metrics for the
// control loop.
package monitoring

import "log"

// Logf is the package-level diagnostic logger, the controller's diagnostic
// channel. It defaults to log.Printf but may be replaced by SetLogger;
// tests mute it, deployments may redirect it to an external logger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
